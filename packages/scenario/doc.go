// Package scenario loads YAML scenario files and runs them step by step.
//
// Each step becomes one chain.Builder; all steps of a scenario share a single
// state.Context so cookies and saved fields flow from one request to the next:
//
//	name: login flow
//	baseUrl: http://localhost:8080
//	steps:
//	  - name: login
//	    method: POST
//	    path: /login
//	    body: {user: ada}
//	    expect: {status: 200}
//	    save: {cookie: session, fields: {userId: user.id}}
//	  - name: profile
//	    path: /users/{{userId}}
//	    sendCookie: true
//	    expect:
//	      fields: {id: "{{userId}}"}
package scenario
