package controller

import (
	"regexp"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/localbase/localbase-backend/internal/app/model"
	"github.com/localbase/localbase-backend/pkg/chain"
	"github.com/localbase/localbase-backend/pkg/util"
)

var (
	businessIDPattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_-]*$`)
	registerOnce      sync.Once
	registerErr       error
)

var customValidations = map[string]validator.Func{
	"business_id": func(fl validator.FieldLevel) bool {
		return businessIDPattern.MatchString(fl.Field().String())
	},
	"category": func(fl validator.FieldLevel) bool {
		return model.Category(fl.Field().String()).Valid()
	},
	"phone": func(fl validator.FieldLevel) bool {
		return util.IsValidPhone(fl.Field().String())
	},
	"website": func(fl validator.FieldLevel) bool {
		return util.IsValidWebsite(fl.Field().String())
	},
	"image_url": func(fl validator.FieldLevel) bool {
		return util.IsValidImageURL(fl.Field().String())
	},
	"clock": func(fl validator.FieldLevel) bool {
		return util.IsValidClock(fl.Field().String())
	},
	"tx_hash": func(fl validator.FieldLevel) bool {
		return chain.IsTxHash(fl.Field().String())
	},
	"eth_addr": func(fl validator.FieldLevel) bool {
		return chain.NormalizeAddress(fl.Field().String()) != ""
	},
}

// RegisterValidators adds the domain binding tags to gin's validator.
// Safe to call more than once.
func RegisterValidators() error {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		for tag, fn := range customValidations {
			if err := v.RegisterValidation(tag, fn); err != nil {
				registerErr = err
				return
			}
		}
	})
	return registerErr
}
