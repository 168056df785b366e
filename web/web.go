package web

import "embed"

// StaticFS 页面外壳，守卫放行后的页面路径都返回 index.html
//
//go:embed index.html
var StaticFS embed.FS
