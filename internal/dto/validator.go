package dto

import (
	"github.com/go-playground/validator/v10"

	"pharmadms/internal/model"
)

// RegisterValidators 注册拜访计划相关的自定义校验标签
//   - frequency_code: F1/F2/F4/F8/F12（忽略大小写与首尾空白）
//   - weekday: 1=周一 … 6=周六
func RegisterValidators(v *validator.Validate) error {
	if err := v.RegisterValidation("frequency_code", validateFrequencyCode); err != nil {
		return err
	}
	return v.RegisterValidation("weekday", validateWeekday)
}

func validateFrequencyCode(fl validator.FieldLevel) bool {
	_, err := model.ParseFrequency(fl.Field().String())
	return err == nil
}

func validateWeekday(fl validator.FieldLevel) bool {
	d := fl.Field().Int()
	return d >= 1 && d <= 6
}
