package models

import "sort"

// IconFallback 未登记图标在读取时统一回退为该图标
const IconFallback = "QuestionMarkCircle"

// 类别可选图标（heroicons outline 名称，去掉 Icon 后缀）
var iconRegistry = map[string]struct{}{
	"AcademicCap":        {},
	"Banknotes":          {},
	"Beaker":             {},
	"Bolt":               {},
	"BookOpen":           {},
	"Briefcase":          {},
	"BuildingLibrary":    {},
	"BuildingStorefront": {},
	"Cake":               {},
	"Calculator":         {},
	"Camera":             {},
	"ChartBar":           {},
	"ComputerDesktop":    {},
	"CreditCard":         {},
	"CurrencyDollar":     {},
	"DevicePhoneMobile":  {},
	"Film":               {},
	"Fire":               {},
	"Gift":               {},
	"GlobeAlt":           {},
	"Heart":              {},
	"Home":               {},
	"Key":                {},
	"LightBulb":          {},
	"MusicalNote":        {},
	"PaperAirplane":      {},
	"Phone":              {},
	"PuzzlePiece":        {},
	"QuestionMarkCircle": {},
	"ReceiptPercent":     {},
	"Scissors":           {},
	"ShoppingBag":        {},
	"ShoppingCart":       {},
	"Sparkles":           {},
	"Star":               {},
	"Sun":                {},
	"Tag":                {},
	"Ticket":             {},
	"Trophy":             {},
	"Truck":              {},
	"Tv":                 {},
	"User":               {},
	"Wallet":             {},
	"Wifi":               {},
	"Wrench":             {},
}

// IsKnownIcon 图标是否已登记
func IsKnownIcon(name string) bool {
	_, ok := iconRegistry[name]
	return ok
}

// ResolveIcon 读取路径使用：未知图标返回回退图标而不是报错
func ResolveIcon(name string) string {
	if IsKnownIcon(name) {
		return name
	}
	return IconFallback
}

// Icons 返回已登记图标（按名称排序）
func Icons() []string {
	names := make([]string, 0, len(iconRegistry))
	for name := range iconRegistry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
