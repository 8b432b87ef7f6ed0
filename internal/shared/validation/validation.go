// Package validation は各オペレーション用の明示的なフィールド検証を提供します。
package validation

import (
	"github.com/go-playground/validator/v10"
)

// validate はフォーマット検証（email等）に使う共有validatorインスタンスです。
var validate = validator.New()

// FieldErrors はフィールド名ごとのエラーメッセージ一覧です。
type FieldErrors map[string][]string

// Add は指定フィールドにエラーメッセージを追加します。
func (f FieldErrors) Add(field, message string) {
	f[field] = append(f[field], message)
}

// Empty はエラーが1件も無い場合にtrueを返します。
func (f FieldErrors) Empty() bool {
	return len(f) == 0
}

// Error は検証失敗を表すエラーです。ミューテーション前に検出され、
// トランスポート層で422にマッピングされます。
type Error struct {
	Fields FieldErrors
}

// Error はerrorインターフェースを実装します。
func (e *Error) Error() string {
	return "validation failed"
}

// NewError はFieldErrorsをラップしたErrorを生成します。
func NewError(fields FieldErrors) *Error {
	return &Error{Fields: fields}
}

// IsEmail はvalidator/v10のemailルールで形式を検証します。
func IsEmail(s string) bool {
	return validate.Var(s, "required,email") == nil
}
