package core

// DomainError 是领域层的统一错误类型。
//
// 设计原则：
//   - 所有领域层错误都使用此类型
//   - 提供错误代码（Code）和消息（Message）
//   - 支持错误检查函数（IsXXX）
//
// 使用场景：
//   - Store 错误：NOT_FOUND, NOT_SUPPORTED
//   - 引擎错误：NOT_FOUND_LOCALLY, NOT_FOUND_ANYWHERE, INVALID_PAGE, INDEX_NOT_READY
//   - 相似度索引错误：ITEM_NOT_INDEXED
//   - 外部补全错误：NOT_FOUND, UNAVAILABLE
type DomainError struct {
	Code    string // 错误代码（如 "NOT_FOUND_LOCALLY", "INVALID_PAGE"）
	Message string // 错误消息
	Module  string // 模块名称（如 "engine", "similarity", "enrich", "store"）
}

func (e *DomainError) Error() string {
	return e.Message
}

// GetDomainError 获取 DomainError，如果不是则返回 nil
func GetDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	if domainErr, ok := err.(*DomainError); ok {
		return domainErr
	}
	return nil
}

// NewDomainError 创建新的领域错误
func NewDomainError(module, code, message string) *DomainError {
	return &DomainError{
		Module:  module,
		Code:    code,
		Message: message,
	}
}

// 错误代码常量
const (
	// 通用错误代码
	ErrorCodeNotFound     = "NOT_FOUND"     // 资源不存在
	ErrorCodeNotSupported = "NOT_SUPPORTED" // 操作不支持
	ErrorCodeUnavailable  = "UNAVAILABLE"   // 服务不可用

	// 引擎错误代码
	ErrorCodeNotFoundLocally  = "NOT_FOUND_LOCALLY"  // 本地目录无匹配
	ErrorCodeNotFoundAnywhere = "NOT_FOUND_ANYWHERE" // 本地与外部服务均无匹配
	ErrorCodeInvalidPage      = "INVALID_PAGE"       // 分页参数非法（page < 1）
	ErrorCodeIndexNotReady    = "INDEX_NOT_READY"    // 相似度索引尚未构建完成
	ErrorCodeItemNotIndexed   = "ITEM_NOT_INDEXED"   // 条目 ID 不在协同索引的列映射中
)

// 模块名称常量
const (
	ModuleStore      = "store"      // 存储模块
	ModuleEngine     = "engine"     // 推荐引擎
	ModuleSimilarity = "similarity" // 相似度索引
	ModuleEnrich     = "enrich"     // 外部补全
	ModuleCatalog    = "catalog"    // 目录存储
)

// 领域错误哨兵。错误语义通过 Code 判定（IsXXX），哨兵仅作为便捷返回值。
var (
	// ErrNotFoundLocally 表示查询标题在本地目录中无匹配（可在边界处降级到外部补全）
	ErrNotFoundLocally = NewDomainError(ModuleEngine, ErrorCodeNotFoundLocally, "engine: no local match for query")

	// ErrNotFoundAnywhere 表示本地目录和外部服务都无匹配（最终失败）
	ErrNotFoundAnywhere = NewDomainError(ModuleEngine, ErrorCodeNotFoundAnywhere, "engine: no match locally or externally")

	// ErrInvalidPage 表示分页输入非法（page < 1 属于输入错误；越界页返回空页，不是错误）
	ErrInvalidPage = NewDomainError(ModuleEngine, ErrorCodeInvalidPage, "engine: page must be >= 1")

	// ErrIndexNotReady 表示索引构建未完成，请求被干净拒绝而非读到半成品矩阵
	ErrIndexNotReady = NewDomainError(ModuleEngine, ErrorCodeIndexNotReady, "engine: similarity indexes not ready")

	// ErrItemNotIndexed 是内部错误：调用方必须捕获并降级为"无协同信号"，不得外传
	ErrItemNotIndexed = NewDomainError(ModuleSimilarity, ErrorCodeItemNotIndexed, "similarity: item id has no column in collaborative index")

	// ErrEnrichNotFound 表示外部补全服务无结果（网络失败也归入此类，不跨边界抛出）
	ErrEnrichNotFound = NewDomainError(ModuleEnrich, ErrorCodeNotFound, "enrich: title not found by external service")

	// ErrEnrichUnavailable 表示单条补全失败（逐条降级为占位图，不影响整页）
	ErrEnrichUnavailable = NewDomainError(ModuleEnrich, ErrorCodeUnavailable, "enrich: lookup unavailable")
)

// IsNotFoundLocally 检查错误是否为 NOT_FOUND_LOCALLY
func IsNotFoundLocally(err error) bool {
	return hasCode(err, ModuleEngine, ErrorCodeNotFoundLocally)
}

// IsNotFoundAnywhere 检查错误是否为 NOT_FOUND_ANYWHERE
func IsNotFoundAnywhere(err error) bool {
	return hasCode(err, ModuleEngine, ErrorCodeNotFoundAnywhere)
}

// IsInvalidPage 检查错误是否为 INVALID_PAGE
func IsInvalidPage(err error) bool {
	return hasCode(err, ModuleEngine, ErrorCodeInvalidPage)
}

// IsIndexNotReady 检查错误是否为 INDEX_NOT_READY
func IsIndexNotReady(err error) bool {
	return hasCode(err, ModuleEngine, ErrorCodeIndexNotReady)
}

// IsItemNotIndexed 检查错误是否为 ITEM_NOT_INDEXED
func IsItemNotIndexed(err error) bool {
	return hasCode(err, ModuleSimilarity, ErrorCodeItemNotIndexed)
}

// IsEnrichNotFound 检查错误是否为外部补全无结果
func IsEnrichNotFound(err error) bool {
	return hasCode(err, ModuleEnrich, ErrorCodeNotFound)
}

func hasCode(err error, module, code string) bool {
	if err == nil {
		return false
	}
	if domainErr := GetDomainError(err); domainErr != nil {
		return domainErr.Module == module && domainErr.Code == code
	}
	return false
}
