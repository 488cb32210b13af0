package domain

// UserRole é um tipo string para representar o papel do usuário no sistema.
type UserRole string

const (
	RoleAdmin   UserRole = "admin"
	RoleManager UserRole = "manager"
	RoleBranch  UserRole = "branch"
)

// Valid informa se o papel é conhecido.
func (r UserRole) Valid() bool {
	switch r {
	case RoleAdmin, RoleManager, RoleBranch:
		return true
	}
	return false
}

// Actor é o usuário já autenticado que invoca uma operação.
// BranchID só é obrigatório para usuários de filial.
type Actor struct {
	UserID   string   `json:"user_id"`
	Role     UserRole `json:"role"`
	BranchID string   `json:"branch_id,omitempty"`
}

// SystemActor identifica transições disparadas pelo próprio sistema (varredura de auto-fechamento).
var SystemActor = Actor{UserID: "system", Role: RoleAdmin}
