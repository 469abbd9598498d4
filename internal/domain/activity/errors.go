package activity

import "errors"

var ErrCompanyIDRequired = errors.New("company ID is required")
