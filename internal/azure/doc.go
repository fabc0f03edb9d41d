// Package azure is the client for the test-management service.
//
// It covers exactly the calls one synchronization pass needs:
//
//	POST  /test/plans                                    create plan
//	POST  /test/Plans/{planId}/suites/{rootSuiteId}      create dynamic suite
//	GET   /test/Plans/{planId}/Suites/{suiteId}/points   list points
//	POST  /test/runs                                     create run
//	PATCH /test/Runs/{runId}/results                     upload results
//
// Every request carries a Basic authorization header built by EncodeToken.
// Failures are returned as *OperationError with Kind transport (the exchange
// did not complete with a 2xx) or data (the response lacked an expected field).
// The client never retries.
package azure
