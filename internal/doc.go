// Package internal contains helper utilities that are intentionally private
// to posauth, currently bounded retry for background lookups.
package internal
