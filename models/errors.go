package models

import "errors"

// ErrPostNotFound возвращают хранилища и сессия, если поста с таким id нет.
var ErrPostNotFound = errors.New("post not found")
