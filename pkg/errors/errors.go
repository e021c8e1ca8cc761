package errors

import (
	"errors"

	"gorm.io/gorm"
)

// ========== 错误码常量定义 ==========

// CodeSuccess 成功码
const (
	CodeSuccess = 200
)

// HTTP层错误码 (400-599)
const (
	CodeInvalidParam = 400
	CodeUnauthorized = 401
	CodeForbidden    = 403
	CodeNotFound     = 404
	CodeConflict     = 409
	CodeServerError  = 500
)

// 业务错误码 (600+)
const (
	CodeInvalidTransition = 600 // 非法状态流转
	CodeStoreUnavailable  = 601 // 主存储不可用
)

// ========== 业务错误类型 ==========

// AppError 带错误码的业务错误，消息对调用方稳定可见
type AppError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *AppError) Error() string {
	return e.Message
}

// NewConflict 唯一约束冲突（slug、农场编号重复）
func NewConflict(message string) *AppError {
	return &AppError{Code: CodeConflict, Message: message}
}

// NewInvalidTransition 非法的申请/订阅状态流转
func NewInvalidTransition(message string) *AppError {
	return &AppError{Code: CodeInvalidTransition, Message: message}
}

// NewNotFound 引用的租户/申请不存在
func NewNotFound(message string) *AppError {
	return &AppError{Code: CodeNotFound, Message: message}
}

// NewStoreUnavailable 主存储不可达
func NewStoreUnavailable(message string) *AppError {
	return &AppError{Code: CodeStoreUnavailable, Message: message}
}

// NewInvalidParam 参数错误
func NewInvalidParam(message string) *AppError {
	return &AppError{Code: CodeInvalidParam, Message: message}
}

// codeOf 提取错误码，非AppError返回0
func codeOf(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return 0
}

func IsConflict(err error) bool          { return codeOf(err) == CodeConflict }
func IsInvalidTransition(err error) bool { return codeOf(err) == CodeInvalidTransition }
func IsNotFound(err error) bool          { return codeOf(err) == CodeNotFound }
func IsStoreUnavailable(err error) bool  { return codeOf(err) == CodeStoreUnavailable }

// AsAppError 尝试转换为AppError
func AsAppError(err error) (*AppError, bool) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr, true
	}
	return nil, false
}

// ========== 数据库错误翻译 ==========

// FromDB 将gorm错误翻译为业务错误分类
// 依赖gorm的TranslateError将驱动层唯一约束错误归一为ErrDuplicatedKey
func FromDB(err error, notFoundMessage string) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return NewNotFound(notFoundMessage)
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return NewConflict("唯一约束冲突")
	}
	if errors.Is(err, gorm.ErrInvalidTransaction) {
		return NewStoreUnavailable("数据库事务不可用")
	}
	// 其余按存储不可用处理，调用方不重试
	return NewStoreUnavailable("数据库操作失败: " + err.Error())
}
