package repository

import (
	"sync"

	"gorm.io/gorm"
)

// Factory manages repository instances and ensures they are singletons
type Factory struct {
	db    *gorm.DB
	repos *Repositories
	once  sync.Once
}

// NewFactory creates a new repository factory
func NewFactory(db *gorm.DB) *Factory {
	return &Factory{db: db}
}

// GetRepositories returns a singleton instance of all repositories
func (f *Factory) GetRepositories() *Repositories {
	f.once.Do(func() {
		f.repos = NewRepositories(f.db)
	})
	return f.repos
}

func (f *Factory) GetUserRepository() UserRepository {
	return f.GetRepositories().User
}

func (f *Factory) GetArtistRepository() ArtistRepository {
	return f.GetRepositories().Artist
}

func (f *Factory) GetProductRepository() ProductRepository {
	return f.GetRepositories().Product
}

func (f *Factory) GetOrderRepository() OrderRepository {
	return f.GetRepositories().Order
}

func (f *Factory) GetShowRepository() ShowRepository {
	return f.GetRepositories().Show
}

var (
	globalFactory   *Factory
	globalFactoryMu sync.Mutex
)

// InitializeGlobalFactory sets up the process-wide factory once the database
// connection exists.
func InitializeGlobalFactory(db *gorm.DB) {
	globalFactoryMu.Lock()
	defer globalFactoryMu.Unlock()
	globalFactory = NewFactory(db)
}

// GetGlobalFactory returns the process-wide factory; panics if the database
// was never set up, which is a boot-order bug.
func GetGlobalFactory() *Factory {
	globalFactoryMu.Lock()
	defer globalFactoryMu.Unlock()
	if globalFactory == nil {
		panic("repository factory used before InitializeGlobalFactory")
	}
	return globalFactory
}
