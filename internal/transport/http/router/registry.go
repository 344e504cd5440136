package router

import (
	"sort"

	"portfolio-site/internal/transport/http/ez"
)

// 模块可选择实现其中一个或多个接口
type APIModule interface{ MountAPI(ez.EZ) }     // 挂在 /api
type AdminModule interface{ MountAdmin(ez.EZ) } // 挂在 /api/admin（已要求 ADMIN）
type UIModule interface{ MountUI(ez.EZ) }       // 挂在 /admin（Guard 规则 2 负责重定向）

// 可选：实现该接口可控制挂载顺序（数值越小越先挂）
// 不实现则默认 100
type prioritizer interface{ Priority() int }

// Registry 按类型断言分发到各挂载列表；每个 engine 一份，不用全局状态
type Registry struct {
	api   []APIModule
	admin []AdminModule
	ui    []UIModule
}

func (r *Registry) Register(mods ...any) {
	for _, mod := range mods {
		if m, ok := mod.(APIModule); ok {
			r.api = append(r.api, m)
		}
		if m, ok := mod.(AdminModule); ok {
			r.admin = append(r.admin, m)
		}
		if m, ok := mod.(UIModule); ok {
			r.ui = append(r.ui, m)
		}
	}
}

func (r *Registry) MountAPI(g ez.EZ) {
	for _, m := range byPriority(r.api) {
		m.MountAPI(g)
	}
}

func (r *Registry) MountAdmin(g ez.EZ) {
	for _, m := range byPriority(r.admin) {
		m.MountAdmin(g)
	}
}

func (r *Registry) MountUI(g ez.EZ) {
	for _, m := range byPriority(r.ui) {
		m.MountUI(g)
	}
}

func byPriority[T any](mods []T) []T {
	out := append([]T(nil), mods...)
	sort.SliceStable(out, func(i, j int) bool { return priorityOf(out[i]) < priorityOf(out[j]) })
	return out
}

func priorityOf(v any) int {
	if p, ok := v.(prioritizer); ok {
		return p.Priority()
	}
	return 100
}
