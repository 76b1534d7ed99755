package amenities

import "errors"

var ErrUploaderUnavailable = errors.New("amenities: photo uploader unavailable")
