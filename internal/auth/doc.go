// Package auth implements authentication and authorization for the
// Voice Control Core.
//
// The auth package validates bearer tokens and enforces scopes on the
// HTTP surface: read for state queries, execute for command and action
// execution, admin for lifecycle control.
package auth
