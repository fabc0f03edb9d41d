// Package ir provides the shared record types for testsync.
//
// This package contains type definitions and small pure helpers only. All other
// internal packages import ir; ir imports nothing internal.
//
// Key design constraints:
//   - Identifiers issued by the test-management service are int64
//   - Test case ids stay strings: they originate from scenario tags
//   - ResultRecord JSON tags follow the service's camelCase wire contract
//   - Payload order is point order, never map order
package ir
