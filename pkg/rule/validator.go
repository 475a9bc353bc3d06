// Package rule 封装 go-playground/validator，统一使用 rule 标签.
//
// 与 gin 共用同一个校验引擎：首次使用时把 gin 的引擎切换到 rule 标签，
// 因此请求结构体与配置结构体都写 rule:"..."，错误中的字段名取 mapstructure/form/json 标签.
package rule

import (
	"errors"
	"reflect"
	"sort"
	"strings"
	"sync"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

// TagName 校验规则使用的结构体标签.
const TagName = "rule"

var engine = sync.OnceValue(func() *validator.Validate {
	v, ok := binding.Validator.Engine().(*validator.Validate)
	if !ok || v == nil {
		v = validator.New()
	}

	v.SetTagName(TagName)
	v.RegisterTagNameFunc(fieldName)

	return v
})

// fieldName 依次取 mapstructure、form、json 标签作为错误中的字段名.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"mapstructure", "form", "json"} {
		name, _, _ := strings.Cut(f.Tag.Get(tag), ",")
		if name == "-" {
			return ""
		}

		if name != "" {
			return name
		}
	}

	return f.Name
}

// Engine 返回全局校验引擎.
func Engine() *validator.Validate {
	return engine()
}

// RegisterValidation 注册自定义规则.
func RegisterValidation(tag string, fn validator.Func, opts ...bool) error {
	return engine().RegisterValidation(tag, fn, opts...)
}

// RegisterAlias 注册规则别名.
func RegisterAlias(alias, rules string) {
	engine().RegisterAlias(alias, rules)
}

// ValidateStruct 校验结构体，返回的错误可以用 Errors 展开.
func ValidateStruct(s any) error {
	return engine().Struct(s)
}

// ValidateVar 按规则校验单个值，例如 ValidateVar(port, "min=1,max=65535").
func ValidateVar(field any, tag string) error {
	return engine().Var(field, tag)
}

// ValidationErrors 字段路径到失败规则的映射，例如 "AppConfig.server.port" -> "max=65535".
type ValidationErrors map[string]string

// Fields 返回排序后的字段路径.
func (e ValidationErrors) Fields() []string {
	out := make([]string, 0, len(e))
	for k := range e {
		out = append(out, k)
	}

	sort.Strings(out)

	return out
}

// Errors 展开校验错误，非校验错误返回 nil.
func Errors(err error) ValidationErrors {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return nil
	}

	out := make(ValidationErrors, len(verrs))
	for _, fe := range verrs {
		msg := fe.Tag()
		if fe.Param() != "" {
			msg += "=" + fe.Param()
		}

		out[fe.Namespace()] = msg
	}

	return out
}
