package users

type AccountRepo interface {
	Upsert(account *Account) error
	GetByEmail(email string) (*Account, error)
	GetByID(id string) (*Account, error)
}
