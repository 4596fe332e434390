package main

import (
	"context"
	"log"
	"net/http"
	"pdis/account"
	"pdis/avatar"
	"pdis/bizerror"
	"pdis/client/es"
	"pdis/client/s3"
	"pdis/common"
	"pdis/domain"
	"pdis/domain/budget"
	"pdis/domain/budget/budgetrest"
	"pdis/domain/calendar"
	"pdis/domain/calendar/calendarrest"
	"pdis/domain/clearance"
	"pdis/domain/clearance/clearancerest"
	"pdis/domain/directory"
	"pdis/domain/directory/directoryrest"
	"pdis/domain/namespace"
	"pdis/domain/vehicle"
	"pdis/domain/vehicle/vehiclerest"
	"pdis/event"
	"pdis/infra/tracing"
	"pdis/persistence"
	"pdis/session"
	"pdis/sessions"

	"github.com/gin-gonic/gin"
)

func main() {
	log.Println("service " + common.GetServiceName() + " start")

	tracingCloser := tracing.Bootstrap()
	defer tracingCloser.Close()

	dbConfig, err := persistence.ParseDatabaseConfigFromEnv()
	if err != nil {
		log.Fatalf("parse database config failed %v\n", err)
	}

	// create database (no conflict)
	if dbConfig.DriverType == "mysql" {
		if err := persistence.PrepareMysqlDatabase(dbConfig.DriverArgs); err != nil {
			log.Fatalf("failed to prepare database %v\n", err)
		}
	}

	ds := &persistence.DataSourceManager{DatabaseConfig: dbConfig}
	if err := ds.Start(); err != nil {
		log.Fatalf("database connection failed %v\n", err)
	}
	defer ds.Stop()
	persistence.ActiveDataSourceManager = ds

	// database migration (race condition)
	err = ds.GormDB(context.Background()).AutoMigrate(
		&account.User{}, &account.Role{}, &account.Permission{},
		&account.RolePermissionBinding{}, &account.UserRoleBinding{},
		&domain.Project{}, &domain.ProjectMember{},
		&clearance.ClearanceForm{}, &clearance.PersonnelFee{},
		&directory.DirectoryEntry{},
		&vehicle.VehicleRequisition{},
		&budget.BudgetLine{},
		&calendar.CalendarEvent{},
		&event.EventRecord{},
	).Error
	if err != nil {
		log.Fatalf("database migration failed %v\n", err)
	}

	if err := account.DefaultSecurityConfiguration(); err != nil {
		log.Fatalf("security bootstrap failed %v\n", err)
	}

	es.CreateClientFromEnv()
	s3.Bootstrap()

	engine := gin.Default()
	engine.Use(bizerror.ErrorHandling(), tracing.TracingIngress())
	engine.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, common.GetServiceName())
	})

	sessions.RegisterSessionsHandler(engine)
	sessions.RegisterSessionHandler(engine, session.SimpleAuthFilter())
	account.RegisterUsersRestAPI(engine, session.SimpleAuthFilter())
	avatar.RegisterAvatarAPI(engine, session.SimpleAuthFilter())

	namespace.RegisterProjectsRestAPI(engine, session.SimpleAuthFilter())
	namespace.RegisterProjectMembersRestAPI(engine, session.SimpleAuthFilter())
	directoryrest.RegisterDirectoryRestAPI(engine, session.SimpleAuthFilter())
	clearancerest.RegisterClearanceRestAPI(engine, session.SimpleAuthFilter())
	vehiclerest.RegisterVehicleRestAPI(engine, session.SimpleAuthFilter())
	budgetrest.RegisterBudgetRestAPI(engine, session.SimpleAuthFilter())
	calendarrest.RegisterCalendarRestAPI(engine, session.SimpleAuthFilter())

	if err = engine.Run(":80"); err != nil {
		panic(err)
	}
}
