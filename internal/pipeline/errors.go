package pipeline

import "errors"

var errNoVIX = errors.New("no VIX level available for gamma classification")
