package js

import "errors"

// ErrUnavailable is returned when the binary was built without `js_eval`.
var ErrUnavailable = errors.New("visibility/js: evaluator requires the js_eval build tag")
