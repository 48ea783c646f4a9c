package engine

import "github.com/rushteam/animerec/core"

// paginate 计算 1 起始的分页切片边界。
//
// 约定：start = (page-1)*size；page < 1 是输入错误（INVALID_PAGE）；
// 越界页返回空切片且 HasNext=false，不是错误。HasPrev/HasNext 按
// 裁剪前的边界判定：拼接 1..ceil(N/P) 页恰好还原整表，HasNext 仅在
// 末页为假，HasPrev 仅在首页为假。
func paginate(total, page, size int) (start, end int, hasPrev, hasNext bool, err error) {
	if page < 1 {
		return 0, 0, false, false, core.ErrInvalidPage
	}
	start = (page - 1) * size
	end = start + size

	hasPrev = start > 0
	hasNext = end < total

	if start > total {
		start = total
	}
	if end > total {
		end = total
	}
	return start, end, hasPrev, hasNext, nil
}
