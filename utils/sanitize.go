package utils

import "github.com/microcosm-cc/bluemonday"

// userContentPolicy permits the limited markup bluemonday considers safe in
// user generated content; scripts, handlers and the rest are stripped.
var userContentPolicy = bluemonday.UGCPolicy()

// Sanitize strips unsafe markup from user supplied text before it is stored.
func Sanitize(input string) string {
	return userContentPolicy.Sanitize(input)
}
