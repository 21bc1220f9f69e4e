package chat

// UpdateIntent is a tagged union of the self-service and admin account
// mutations. The API boundary decodes the request's action discriminator into
// one of these once, so UserService.Update can dispatch exhaustively.
type UpdateIntent interface {
	isUpdateIntent()
}

// RenameIntent changes the user's display name.
type RenameIntent struct {
	Name string
}

// ChangePasswordIntent changes the user's password. Confirm must match
// Password for the intent to be accepted.
type ChangePasswordIntent struct {
	Password string
	Confirm  string
}

// ChangeStatusIntent changes the user's employee status tier. Status is kept
// as the raw request string; parsing is part of acceptance.
type ChangeStatusIntent struct {
	Status string
}

func (RenameIntent) isUpdateIntent()         {}
func (ChangePasswordIntent) isUpdateIntent() {}
func (ChangeStatusIntent) isUpdateIntent()   {}
