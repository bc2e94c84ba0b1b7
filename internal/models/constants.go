package models

// Тарифы.
const (
	PlanFree = "free"
	PlanPro  = "pro"
)

// Роли.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// FreeItemLimit: сколько записей опыта или проектов доступно на бесплатном тарифе.
const FreeItemLimit = 3

// ValidPlans список допустимых тарифов.
var ValidPlans = map[string]struct{}{
	PlanFree: {},
	PlanPro:  {},
}

// ValidRoles список допустимых ролей.
var ValidRoles = map[string]struct{}{
	RoleUser:  {},
	RoleAdmin: {},
}

// CanAddItem решает, можно ли добавить ещё одну запись в ограниченный тарифом список.
func CanAddItem(currentCount int, isPro bool) bool {
	return isPro || currentCount < FreeItemLimit
}
