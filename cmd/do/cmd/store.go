package cmd

import (
	"cmp"
	"errors"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/theoryboard/theoryboard/internal/config"
)

// DefaultEnvFile is read when --env-file is not given; it may be absent.
const DefaultEnvFile = ".env"

// LoadEnvFile loads a dotenv file without overriding variables already set.
func LoadEnvFile(path string) error {
	err := godotenv.Load(path)
	if errors.Is(err, fs.ErrNotExist) && path == DefaultEnvFile {
		return nil
	}
	return err
}

type storeFlags struct {
	store         string
	dbDriver      string
	dbConnection  string
	mongoURI      string
	mongoDatabase string
}

// bindStoreFlags registers the document store flags. Unset flags fall back
// to the environment when config is called, after --env-file has loaded.
func bindStoreFlags(cmd *cobra.Command, f *storeFlags) {
	cmd.Flags().StringVar(&f.store, "store", "", "document store: sql or mongo (default $STORE_DRIVER or sql)")
	cmd.Flags().StringVar(&f.dbDriver, "db-driver", "", "SQL driver: sqlite or pgx (default $DB_DRIVER or sqlite)")
	cmd.Flags().StringVar(&f.dbConnection, "db", "", "SQL connection string (default $DB_CONNECTION or ./data/theoryboard.db)")
	cmd.Flags().StringVar(&f.mongoURI, "mongo-uri", "", "MongoDB URI (default $MONGO_URI or mongodb://localhost:27017)")
	cmd.Flags().StringVar(&f.mongoDatabase, "mongo-db", "", "MongoDB database (default $MONGO_DATABASE or theoryboard)")
}

func (f *storeFlags) config() *config.Config {
	return &config.Config{
		StoreDriver:   cmp.Or(f.store, os.Getenv("STORE_DRIVER"), config.StoreDriverSQL),
		DBDriver:      cmp.Or(f.dbDriver, os.Getenv("DB_DRIVER"), "sqlite"),
		DBConnection:  cmp.Or(f.dbConnection, os.Getenv("DB_CONNECTION"), "./data/theoryboard.db"),
		MongoURI:      cmp.Or(f.mongoURI, os.Getenv("MONGO_URI"), "mongodb://localhost:27017"),
		MongoDatabase: cmp.Or(f.mongoDatabase, os.Getenv("MONGO_DATABASE"), "theoryboard"),
	}
}
