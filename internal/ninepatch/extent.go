package ninepatch

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
)

var validate = validator.New()

// Extent is the pixel size of the image a chunk describes.
type Extent struct {
	Width  int `json:"width" validate:"gt=0"`
	Height int `json:"height" validate:"gt=0"`
}

// NewExtent validates width and height and returns the extent.
func NewExtent(width, height int) (Extent, error) {
	e := Extent{Width: width, Height: height}
	if err := validate.Struct(e); err != nil {
		return Extent{}, errors.Wrapf(ErrInvalidDimensions, "%dx%d (%s)", width, height, validationSummary(err))
	}
	return e, nil
}

func (e Extent) String() string {
	return fmt.Sprintf("%dx%d", e.Width, e.Height)
}

// validationSummary flattens validator errors into "Field: tag" pairs.
func validationSummary(err error) string {
	var ve validator.ValidationErrors
	if !errors.As(err, &ve) {
		return err.Error()
	}
	msg := ""
	for i, fe := range ve {
		if i > 0 {
			msg += "; "
		}
		msg += fmt.Sprintf("%s: failed %s=%s", fe.Field(), fe.Tag(), fe.Param())
	}
	return msg
}
