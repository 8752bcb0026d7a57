// Package domain holds the account model: a user's single contact method and
// single payment method, expressed as closed sum types.
//
// Rules for this package:
//   - No imports from other internal/ packages
//   - Values are immutable; "mutations" return a new value
//   - Side effects only through the capability interfaces in capability.go
//   - Dispatch over a sum type goes through its Match function, never a type
//     switch with a default branch
package domain
