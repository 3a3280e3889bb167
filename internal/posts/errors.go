package posts

import "errors"

// ErrPostNotFound is returned when a slug is unknown or belongs to a
// different category than requested.
var ErrPostNotFound = errors.New("posts: post not found")
