package db

import (
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"

	dbmodels "travelink-backend/models/db"
)

func AutoMigrateDB() error {
	DB.Exec("CREATE EXTENSION IF NOT EXISTS \"uuid-ossp\";")
	log.Info("running migrations")
	if err := DB.AutoMigrate(&dbmodels.Department{}); err != nil {
		return errors.Wrap(err, "failed to migrate Department")
	}
	if err := DB.AutoMigrate(&dbmodels.User{}); err != nil {
		return errors.Wrap(err, "failed to migrate User")
	}
	if err := DB.AutoMigrate(&dbmodels.Request{}); err != nil {
		return errors.Wrap(err, "failed to migrate Request")
	}
	if err := DB.AutoMigrate(&dbmodels.RequestHistory{}); err != nil {
		return errors.Wrap(err, "failed to migrate RequestHistory")
	}
	if err := DB.AutoMigrate(&dbmodels.RequesterInvitation{}); err != nil {
		return errors.Wrap(err, "failed to migrate RequesterInvitation")
	}
	if err := DB.AutoMigrate(&dbmodels.RequestAttachment{}); err != nil {
		return errors.Wrap(err, "failed to migrate RequestAttachment")
	}
	if err := DB.AutoMigrate(&dbmodels.Notification{}); err != nil {
		return errors.Wrap(err, "failed to migrate Notification")
	}
	log.Info("migrations finished")
	return nil
}
