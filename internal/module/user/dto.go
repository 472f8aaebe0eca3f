package user

// ChangeRoleRequest represents the input for changing a user's role.
type ChangeRoleRequest struct {
	Role string `json:"role" binding:"required"`
}
