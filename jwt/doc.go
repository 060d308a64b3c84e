// Package jwt issues and verifies the identity tokens carried by provider sessions.
//
// Tokens are pinned to a single signing algorithm per [Manager]; a token signed with any
// other algorithm is rejected before its claims are inspected.
package jwt
