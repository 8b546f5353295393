package imaging

import "errors"

var (
	// ErrEmptyBatch indicates a submission with no images.
	ErrEmptyBatch = errors.New("no images submitted")
	// ErrTooManyImages indicates more images than the batch limit.
	ErrTooManyImages = errors.New("too many images")
	// ErrUnsupportedType indicates a declared MIME type outside the
	// allowed set. The whole batch is rejected.
	ErrUnsupportedType = errors.New("unsupported image type")
	// ErrImageTooLarge indicates a single image over the byte cap.
	ErrImageTooLarge = errors.New("image exceeds size limit")
	// ErrCodec indicates a decode or re-encode failure for any image in
	// the batch.
	ErrCodec = errors.New("image codec failure")
)
