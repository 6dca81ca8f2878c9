package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/google/uuid"
	// Registers the lib/pq "postgres" database/sql driver used for bootstrap
	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	m "UniJobBoard-backend/internal/model"
)

var testDBInstance *DBinstanceStruct
var teardown func(context.Context, ...testcontainers.TerminateOption) error

// Exported test profiles
var (
	TestAdmin    m.Profile
	TestFaculty1 m.Profile
	TestFaculty2 m.Profile
	// TestStudent1 studies Computer Science
	TestStudent1 m.Profile
	// TestStudent2 has no department and receives every new job broadcast
	TestStudent2 m.Profile
	// TestStudent3 studies Biology and opted out of email
	TestStudent3 m.Profile

	// Exported seeded job postings, both owned by TestFaculty1
	TestJobPost1 m.JobPosting
	TestJobPost2 m.JobPosting
)

// GetTestDB starts a PostgreSQL test container and returns a teardown function,
// the DB instance, and any error encountered during setup.
func GetTestDB() (func(context.Context, ...testcontainers.TerminateOption) error, *DBinstanceStruct, error) {

	if testDBInstance != nil && teardown != nil {
		return teardown, testDBInstance, nil
	}

	// Database configuration
	var (
		dbName = "database"
		dbPwd  = "password"
		dbUser = "user"
	)

	dbContainer, err := postgres.Run(
		context.Background(),
		"postgres:16-alpine",
		postgres.WithDatabase(dbName),
		postgres.WithUsername(dbUser),
		postgres.WithPassword(dbPwd),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second)),
	)
	if err != nil {
		return nil, nil, err
	}

	dbHost, err := dbContainer.Host(context.Background())
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dbPort, err := dbContainer.MappedPort(context.Background(), nat.Port("5432/tcp"))
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	dsn := fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable", dbHost, dbPort.Port(), dbUser, dbPwd, dbName)

	if err := bootstrap(dsn); err != nil {
		return dbContainer.Terminate, nil, err
	}

	config := &DBConfig{
		useConstr: true,
		Constr:    dsn,
	}

	db, err := NewDBInstance(config)
	if err != nil {
		return dbContainer.Terminate, nil, err
	}

	if err := seedTestData(db); err != nil {
		_ = dbContainer.Terminate(context.Background())
		return nil, nil, err
	}

	testDBInstance = db
	teardown = dbContainer.Terminate

	return dbContainer.Terminate, db, nil
}

// bootstrap prepares the fresh container through a plain lib/pq connection.
func bootstrap(dsn string) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	_, err = db.ExecContext(context.Background(), `CREATE EXTENSION IF NOT EXISTS "uuid-ossp";`)
	return err
}

// seedTestData inserts the sample profiles and job postings.
func seedTestData(db *DBinstanceStruct) error {
	cs, bio := "Computer Science", "Biology"

	profiles := []m.Profile{
		{ID: uuid.New(), Email: "admin@example.edu", FullName: "Ada Admin", Role: m.RoleAdmin},
		{ID: uuid.New(), Email: "faculty1@example.edu", FullName: "Grace Hopper", Role: m.RoleFaculty, Department: &cs},
		{ID: uuid.New(), Email: "faculty2@example.edu", FullName: "Barbara McClintock", Role: m.RoleFaculty, Department: &bio},
		{ID: uuid.New(), Email: "student1@example.edu", FullName: "Alice Nguyen", Role: m.RoleStudent, Department: &cs},
		{ID: uuid.New(), Email: "student2@example.edu", FullName: "Bob Somsak", Role: m.RoleStudent},
		{ID: uuid.New(), Email: "student3@example.edu", FullName: "Carol Diaz", Role: m.RoleStudent, Department: &bio, EmailOptOut: true},
	}
	if err := db.Create(&profiles).Error; err != nil {
		return err
	}
	TestAdmin = profiles[0]
	TestFaculty1 = profiles[1]
	TestFaculty2 = profiles[2]
	TestStudent1 = profiles[3]
	TestStudent2 = profiles[4]
	TestStudent3 = profiles[5]

	future := time.Now().AddDate(0, 1, 0)
	pay := "20 USD/hour"

	jobs := []m.JobPosting{
		{
			EditableJobPostingInfo: m.EditableJobPostingInfo{
				Title:       "Distributed Systems Research Assistant",
				Description: "Help build a consensus testbed in Go.",
				JobType:     m.JobTypeResearchAssistant,
				Department:  cs,
			},
			IsActive: true,
			PostedBy: TestFaculty1.ID,
		},
		{
			EditableJobPostingInfo: m.EditableJobPostingInfo{
				Title:               "Intro to Programming Teaching Assistant",
				Description:         "Run weekly lab sessions.",
				Compensation:        &pay,
				JobType:             m.JobTypeTeachingAssistant,
				Department:          cs,
				ApplicationDeadline: &future,
			},
			IsActive: true,
			PostedBy: TestFaculty1.ID,
		},
	}
	if err := db.Create(&jobs).Error; err != nil {
		return err
	}
	TestJobPost1 = jobs[0]
	TestJobPost2 = jobs[1]

	return nil
}
