package corpus

import (
	"fmt"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/user/moovie/internal/model"
)

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// Validate 校验记录必填项与数值范围
func Validate(m *model.Movie) error {
	err := getValidator().Struct(m)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s(%s)", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("记录 %q 校验失败: %s", m.ID, strings.Join(fields, ", "))
}

// Sanitize 将超出范围的数值字段置为 nil（字段级异常按缺失处理），
// 再返回必填项等无法修复的错误
func Sanitize(m *model.Movie) error {
	err := getValidator().Struct(m)
	if err == nil {
		return nil
	}
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	for _, fe := range verrs {
		switch fe.Field() {
		case "Year":
			m.Year = nil
		case "Runtime":
			m.Runtime = nil
		case "Rating":
			m.Rating = nil
		case "VoteCount":
			m.VoteCount = nil
		}
	}
	return Validate(m)
}
