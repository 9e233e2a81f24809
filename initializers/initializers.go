package initializers

import (
	"context"

	"travelink-backend/config"
	"travelink-backend/db"
	"travelink-backend/fiberlog"
	departmentprovider "travelink-backend/lib/dicts/department"
	pdfexport "travelink-backend/lib/export/pdf"
	xlsexport "travelink-backend/lib/export/xls"
	"travelink-backend/lib/identity"
	"travelink-backend/lib/notification"
	requestprovider "travelink-backend/lib/request"
	requesthistory "travelink-backend/lib/request-history"
	requesterinvite "travelink-backend/lib/requester-invite"
	inviteexpireworker "travelink-backend/lib/requester-invite/expire-worker"
	usersstore "travelink-backend/lib/users/store"
)

var LoggerConfig *fiberlog.Config

func InitAllServices(ctx context.Context) {
	LoggerConfig = InitLogger()
	config.InitConfig()
	InitDBConnection()
	InitS3(ctx)
	InitSmtp()
	departmentprovider.NewHandler()
	identity.NewHandler(usersstore.NewInstance(db.DB))
	requesthistory.NewHandler()
	notification.NewHandler()
	requesterinvite.NewHandler()
	requestprovider.NewHandler()
	xlsexport.NewHandler()
	pdfexport.NewHandler()
	go initWorkers(ctx)
}

func initWorkers(ctx context.Context) {
	// sweeps pending invitations past their deadline
	inviteexpireworker.StartWorker(ctx)
}
