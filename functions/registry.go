package functions

import (
	"fmt"
	"strings"
	"sync"

	"github.com/rulego/streamdiff/types"
)

// FunctionType 函数类型枚举
type FunctionType string

const (
	// 数学函数
	TypeMath FunctionType = "math"
	// 字符串函数
	TypeString FunctionType = "string"
	// 条件函数
	TypeConditional FunctionType = "conditional"
	// 用户自定义函数
	TypeCustom FunctionType = "custom"
)

// Function 标量函数接口定义
type Function interface {
	// GetName 获取函数名称
	GetName() string
	// GetType 获取函数类型
	GetType() FunctionType
	// GetCategory 获取函数分类
	GetCategory() string
	// GetDescription 获取函数描述
	GetDescription() string
	// ValidateArgCount 在构建计划时校验参数个数
	ValidateArgCount(n int) error
	// Execute 执行函数
	Execute(args []types.Value) (types.Value, error)
}

// FunctionRegistry 函数注册器
type FunctionRegistry struct {
	mu         sync.RWMutex
	functions  map[string]Function
	categories map[FunctionType][]Function
}

// 全局函数注册器实例
var globalRegistry = NewFunctionRegistry()

// NewFunctionRegistry 创建新的函数注册器
func NewFunctionRegistry() *FunctionRegistry {
	return &FunctionRegistry{
		functions:  make(map[string]Function),
		categories: make(map[FunctionType][]Function),
	}
}

// Register 注册函数
func (r *FunctionRegistry) Register(fn Function) error {
	name := strings.ToLower(fn.GetName())
	if name == "" {
		return fmt.Errorf("function name must not be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// 检查函数是否已存在
	if _, exists := r.functions[name]; exists {
		return fmt.Errorf("function %s already registered", name)
	}

	r.functions[name] = fn
	r.categories[fn.GetType()] = append(r.categories[fn.GetType()], fn)
	return nil
}

// Get 获取函数，名称不区分大小写
func (r *FunctionRegistry) Get(name string) (Function, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	fn, exists := r.functions[strings.ToLower(name)]
	return fn, exists
}

// GetByType 按类型获取函数列表
func (r *FunctionRegistry) GetByType(fnType FunctionType) []Function {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return append([]Function(nil), r.categories[fnType]...)
}

// ListAll 列出所有注册的函数
func (r *FunctionRegistry) ListAll() map[string]Function {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make(map[string]Function, len(r.functions))
	for name, fn := range r.functions {
		result[name] = fn
	}
	return result
}

// Unregister 注销函数
func (r *FunctionRegistry) Unregister(name string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	name = strings.ToLower(name)
	fn, exists := r.functions[name]
	if !exists {
		return false
	}

	delete(r.functions, name)

	// 从分类中移除
	fnType := fn.GetType()
	funcs := r.categories[fnType]
	for i, f := range funcs {
		if strings.ToLower(f.GetName()) == name {
			r.categories[fnType] = append(funcs[:i:i], funcs[i+1:]...)
			break
		}
	}
	return true
}

// 全局函数注册和获取方法
func Register(fn Function) error {
	return globalRegistry.Register(fn)
}

func Get(name string) (Function, bool) {
	return globalRegistry.Get(name)
}

func GetByType(fnType FunctionType) []Function {
	return globalRegistry.GetByType(fnType)
}

func ListAll() map[string]Function {
	return globalRegistry.ListAll()
}

func Unregister(name string) bool {
	return globalRegistry.Unregister(name)
}

// Default returns the global registry
func Default() *FunctionRegistry {
	return globalRegistry
}

// RegisterCustomFunction 注册自定义函数
func RegisterCustomFunction(name string, category, description string, minArgs, maxArgs int,
	executor func(args []types.Value) (types.Value, error)) error {
	if executor == nil {
		return fmt.Errorf("function %s has no executor", name)
	}
	return Register(NewCustomFunction(name, category, description, minArgs, maxArgs, executor))
}

// NewCustomFunction 用执行函数创建自定义函数，可注册到任意注册器
func NewCustomFunction(name string, category, description string, minArgs, maxArgs int,
	executor func(args []types.Value) (types.Value, error)) *CustomFunction {
	return &CustomFunction{
		BaseFunction: NewBaseFunction(name, TypeCustom, category, description, minArgs, maxArgs),
		executor:     executor,
	}
}

// Execute 按名称执行函数
func (r *FunctionRegistry) Execute(name string, args []types.Value) (types.Value, error) {
	fn, exists := r.Get(name)
	if !exists {
		return types.Null, fmt.Errorf("function %s not found", name)
	}
	if err := fn.ValidateArgCount(len(args)); err != nil {
		return types.Null, fmt.Errorf("function %s validation failed: %w", name, err)
	}
	return fn.Execute(args)
}

// Execute 使用全局注册器执行函数
func Execute(name string, args []types.Value) (types.Value, error) {
	return globalRegistry.Execute(name, args)
}

// CustomFunction 自定义函数实现
type CustomFunction struct {
	*BaseFunction
	executor func(args []types.Value) (types.Value, error)
}

func (f *CustomFunction) Execute(args []types.Value) (types.Value, error) {
	return f.executor(args)
}

func init() {
	// 注册数学函数
	_ = Register(NewAbsFunction())
	_ = Register(NewRoundFunction())
	_ = Register(NewFloorFunction())
	_ = Register(NewCeilingFunction())

	// 注册字符串函数
	_ = Register(NewUpperFunction())
	_ = Register(NewLowerFunction())
	_ = Register(NewLengthFunction())
	_ = Register(NewConcatFunction())

	// 注册条件函数
	_ = Register(NewCoalesceFunction())
	_ = Register(NewNullIfFunction())
}
