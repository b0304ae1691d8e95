package models_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
	"testing"
	"time"

	"bitbucket.org/mmdatafocus/studio_backend/config"
	"bitbucket.org/mmdatafocus/studio_backend/models"
	"bitbucket.org/mmdatafocus/studio_backend/utils"
	"github.com/shopspring/decimal"
)

func mmk(n int64) utils.Amount {
	return utils.NewAmount(decimal.NewFromInt(n))
}

func TestBookingAggregateRegression(t *testing.T) {
	if strings.TrimSpace(os.Getenv("INTEGRATION_TESTS")) == "" {
		t.Skip("set INTEGRATION_TESTS=1 to run integration tests (requires docker)")
	}

	ctx := context.Background()

	redisName, redisPort := startRedisContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(redisName) })

	mysqlName, mysqlPort := startMySQLContainer(t)
	t.Cleanup(func() { _ = dockerRmForce(mysqlName) })

	// Wire env for config.Connect* helpers.
	t.Setenv("REDIS_ADDRESS", fmt.Sprintf("127.0.0.1:%s", redisPort))
	t.Setenv("DB_USER", "root")
	t.Setenv("DB_PASSWORD", "testpw")
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", mysqlPort)
	t.Setenv("DB_NAME", "studio_test")

	config.ConnectDatabaseWithRetry()
	config.ConnectRedisWithRetry()
	models.MigrateTable()

	ctx = utils.SetUserIdInContext(ctx, 1)
	ctx = utils.SetUserNameInContext(ctx, "Test")

	orgA, err := models.CreateOrganization(ctx, &models.NewOrganization{Name: "Org A"})
	if err != nil {
		t.Fatalf("CreateOrganization A: %v", err)
	}
	orgB, err := models.CreateOrganization(ctx, &models.NewOrganization{Name: "Org B"})
	if err != nil {
		t.Fatalf("CreateOrganization B: %v", err)
	}

	ctxA := utils.SetOrganizationIdInContext(ctx, orgA.ID)
	ctxB := utils.SetOrganizationIdInContext(ctx, orgB.ID)

	var crewA []*models.CrewMember
	for _, name := range []string{"Crew One", "Crew Two", "Crew Three", "Crew Four"} {
		m, err := models.CreateCrewMember(ctxA, &models.NewCrewMember{Name: name})
		if err != nil {
			t.Fatalf("CreateCrewMember %s: %v", name, err)
		}
		crewA = append(crewA, m)
	}
	crewB, err := models.CreateCrewMember(ctxB, &models.NewCrewMember{Name: "Other Org Crew"})
	if err != nil {
		t.Fatalf("CreateCrewMember org B: %v", err)
	}

	db := config.GetDB()
	if db == nil {
		t.Fatalf("db is nil after ConnectDatabaseWithRetry")
	}

	t.Run("create aggregate at exact package cost", func(t *testing.T) {
		booking, err := models.CreateBooking(ctxA, &models.NewBooking{
			Name:        "Mg Mg Wedding",
			PackageCost: mmk(100000),
			Participants: []*models.NewParticipant{
				{Name: "Mg Mg", Phone: "09777000555", Role: "groom"},
			},
			Shoots: []*models.NewShoot{
				{Name: "Pre-wedding", CrewMemberIds: []int{crewA[0].ID, crewA[1].ID}},
			},
			Deliverables: []*models.NewDeliverable{
				{Name: "Album", Quantity: 1},
			},
			ReceivedPayments: []*models.NewReceivedPayment{
				{Amount: mmk(40000), PaidOn: time.Now()},
			},
			ScheduledPayments: []*models.NewScheduledPayment{
				{Amount: mmk(60000), Description: "balance on delivery"},
			},
		})
		if err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
		if booking.Status != models.BookingStatusNew {
			t.Errorf("status = %s, want new", booking.Status)
		}
		if len(booking.Shoots) != 1 || len(booking.Shoots[0].Assignments) != 2 {
			t.Errorf("expected 1 shoot with 2 assignments, got %+v", booking.Shoots)
		}
		if len(booking.Participants) != 1 || booking.Participants[0].Client == nil {
			t.Errorf("expected 1 participant with client, got %+v", booking.Participants)
		}
	})

	t.Run("payments one cent over cost are rejected", func(t *testing.T) {
		amount, _ := decimal.NewFromString("60000.01")
		_, err := models.CreateBooking(ctxA, &models.NewBooking{
			Name:        "Boundary Booking",
			PackageCost: mmk(60000),
			ReceivedPayments: []*models.NewReceivedPayment{
				{Amount: utils.NewAmount(amount)},
			},
		})
		if !errors.Is(err, utils.ErrorPaymentsExceedPackageCost) {
			t.Fatalf("expected ErrorPaymentsExceedPackageCost, got %v", err)
		}
	})

	t.Run("invalid crew reference leaves no partial rows", func(t *testing.T) {
		_, err := models.CreateBooking(ctxA, &models.NewBooking{
			Name:        "Broken Crew Booking",
			PackageCost: mmk(50000),
			Shoots: []*models.NewShoot{
				{Name: "Main day", CrewMemberIds: []int{crewA[0].ID, 999999}},
			},
		})
		var crewErr *utils.InvalidCrewReferencesError
		if !errors.As(err, &crewErr) {
			t.Fatalf("expected InvalidCrewReferencesError, got %v", err)
		}
		if len(crewErr.Ids) != 1 || crewErr.Ids[0] != 999999 {
			t.Errorf("offending ids = %v, want [999999]", crewErr.Ids)
		}

		var count int64
		if err := db.Model(&models.Booking{}).
			Where("organization_id = ? AND name = ?", orgA.ID, "Broken Crew Booking").
			Count(&count).Error; err != nil {
			t.Fatalf("count bookings: %v", err)
		}
		if count != 0 {
			t.Errorf("found %d partial booking rows, want 0", count)
		}
	})

	t.Run("cross-tenant crew on shoot is rejected", func(t *testing.T) {
		_, err := models.CreateBooking(ctxA, &models.NewBooking{
			Name:        "Cross Tenant Booking",
			PackageCost: mmk(50000),
			Shoots: []*models.NewShoot{
				{Name: "Main day", CrewMemberIds: []int{crewB.ID}},
			},
		})
		var crewErr *utils.InvalidCrewReferencesError
		if !errors.As(err, &crewErr) {
			t.Fatalf("expected InvalidCrewReferencesError for foreign crew, got %v", err)
		}
	})

	t.Run("duplicate booking name within organization", func(t *testing.T) {
		_, err := models.CreateBooking(ctxA, &models.NewBooking{
			Name:        "Mg Mg Wedding",
			PackageCost: mmk(100000),
		})
		if !errors.Is(err, utils.ErrorDuplicateBookingName) {
			t.Fatalf("expected ErrorDuplicateBookingName, got %v", err)
		}
		// same name in another organization is fine
		if _, err := models.CreateBooking(ctxB, &models.NewBooking{
			Name:        "Mg Mg Wedding",
			PackageCost: mmk(100000),
		}); err != nil {
			t.Fatalf("same name in org B should pass: %v", err)
		}
	})

	t.Run("cost reduction guarded by committed payments", func(t *testing.T) {
		booking, err := models.CreateBooking(ctxA, &models.NewBooking{
			Name:        "Cost Reduction Booking",
			PackageCost: mmk(100000),
			ReceivedPayments: []*models.NewReceivedPayment{
				{Amount: mmk(50000)},
			},
			ScheduledPayments: []*models.NewScheduledPayment{
				{Amount: mmk(40000), Description: "balance"},
			},
		})
		if err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}

		below := mmk(80000)
		_, err = models.UpdateBooking(ctxA, booking.ID, &models.UpdateBookingInput{PackageCost: &below})
		if !errors.Is(err, utils.ErrorCostBelowCommittedPayments) {
			t.Fatalf("expected ErrorCostBelowCommittedPayments, got %v", err)
		}

		ok := mmk(95000)
		updated, err := models.UpdateBooking(ctxA, booking.ID, &models.UpdateBookingInput{PackageCost: &ok})
		if err != nil {
			t.Fatalf("reduction to 95000 should pass: %v", err)
		}
		if !updated.PackageCost.Equal(ok.Decimal) {
			t.Errorf("package cost = %s, want 95000", updated.PackageCost)
		}

		// 95000 committed of 95000: the next received payment must fail
		_, err = models.AddReceivedPayment(ctxA, booking.ID, &models.NewReceivedPayment{
			Amount: mmk(5001),
		})
		if !errors.Is(err, utils.ErrorPaymentsExceedPackageCost) {
			t.Fatalf("expected ErrorPaymentsExceedPackageCost, got %v", err)
		}
		if _, err := models.AddReceivedPayment(ctxA, booking.ID, &models.NewReceivedPayment{
			Amount: mmk(5000),
		}); err != nil {
			t.Fatalf("payment up to cost should pass: %v", err)
		}
	})

	t.Run("reconciliation preserves assignment history", func(t *testing.T) {
		booking, err := models.CreateBooking(ctxA, &models.NewBooking{
			Name:        "Reconciliation Booking",
			PackageCost: mmk(50000),
			Shoots: []*models.NewShoot{
				{Name: "Main day", CrewMemberIds: []int{crewA[0].ID, crewA[1].ID, crewA[2].ID}},
			},
		})
		if err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}
		shootId := booking.Shoots[0].ID

		var keptBefore models.ShootAssignment
		if err := db.Where("shoot_id = ? AND crew_member_id = ?", shootId, crewA[1].ID).
			First(&keptBefore).Error; err != nil {
			t.Fatalf("load kept assignment: %v", err)
		}

		time.Sleep(1100 * time.Millisecond)

		target := []int{crewA[1].ID, crewA[2].ID, crewA[3].ID}
		if _, err := models.UpdateShoot(ctxA, shootId, &models.UpdateShootInput{CrewMemberIds: &target}); err != nil {
			t.Fatalf("UpdateShoot reconcile: %v", err)
		}

		var rows []models.ShootAssignment
		if err := db.Where("shoot_id = ?", shootId).Find(&rows).Error; err != nil {
			t.Fatalf("load assignments: %v", err)
		}
		if len(rows) != 3 {
			t.Fatalf("assignment count = %d, want 3", len(rows))
		}
		got := map[int]models.ShootAssignment{}
		for _, row := range rows {
			got[row.CrewMemberId] = row
		}
		if _, ok := got[crewA[0].ID]; ok {
			t.Errorf("crew %d should have been removed", crewA[0].ID)
		}
		kept, ok := got[crewA[1].ID]
		if !ok {
			t.Fatalf("crew %d missing after reconcile", crewA[1].ID)
		}
		if kept.ID != keptBefore.ID || !kept.AssignedAt.Equal(keptBefore.AssignedAt) {
			t.Errorf("kept assignment row changed: before id=%d at=%s, after id=%d at=%s",
				keptBefore.ID, keptBefore.AssignedAt, kept.ID, kept.AssignedAt)
		}
		added, ok := got[crewA[3].ID]
		if !ok {
			t.Fatalf("crew %d missing after reconcile", crewA[3].ID)
		}
		if !added.AssignedAt.After(keptBefore.AssignedAt) {
			t.Errorf("new assignment timestamp %s should be after %s", added.AssignedAt, keptBefore.AssignedAt)
		}

		// second apply with the same target must write nothing
		if _, err := models.UpdateShoot(ctxA, shootId, &models.UpdateShootInput{CrewMemberIds: &target}); err != nil {
			t.Fatalf("idempotent UpdateShoot: %v", err)
		}
		var after []models.ShootAssignment
		if err := db.Where("shoot_id = ?", shootId).Find(&after).Error; err != nil {
			t.Fatalf("reload assignments: %v", err)
		}
		afterById := map[int]models.ShootAssignment{}
		for _, row := range after {
			afterById[row.CrewMemberId] = row
		}
		for crewId, row := range got {
			if afterById[crewId].ID != row.ID {
				t.Errorf("row id for crew %d changed on idempotent apply", crewId)
			}
		}
	})

	t.Run("tenant isolation on reads and writes", func(t *testing.T) {
		booking, err := models.CreateBooking(ctxA, &models.NewBooking{
			Name:        "Isolation Booking",
			PackageCost: mmk(10000),
		})
		if err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}

		if _, err := models.GetBooking(ctxB, booking.ID); !errors.Is(err, utils.ErrorRecordNotFound) {
			t.Errorf("org B read should be NotFound, got %v", err)
		}
		status := models.BookingStatusCancelled
		if _, err := models.UpdateBooking(ctxB, booking.ID, &models.UpdateBookingInput{Status: &status}); !errors.Is(err, utils.ErrorRecordNotFound) {
			t.Errorf("org B write should be NotFound, got %v", err)
		}
		if _, err := models.CreateShoot(ctxB, &models.NewShoot{BookingId: booking.ID, Name: "Sneaky"}); !errors.Is(err, utils.ErrorRecordNotFound) {
			t.Errorf("org B child create should be NotFound, got %v", err)
		}
		if _, err := models.CreateBooking(context.Background(), &models.NewBooking{Name: "No Org"}); !errors.Is(err, utils.ErrorUnscoped) {
			t.Errorf("missing org should be Unscoped, got %v", err)
		}
	})

	t.Run("state machine enforced through persistence", func(t *testing.T) {
		booking, err := models.CreateBooking(ctxA, &models.NewBooking{
			Name:        "Lifecycle Booking",
			PackageCost: mmk(10000),
		})
		if err != nil {
			t.Fatalf("CreateBooking: %v", err)
		}

		completed := models.BookingStatusCompleted
		_, err = models.UpdateBooking(ctxA, booking.ID, &models.UpdateBookingInput{Status: &completed})
		var transitionErr *utils.InvalidTransitionError
		if !errors.As(err, &transitionErr) {
			t.Fatalf("expected InvalidTransitionError, got %v", err)
		}
		if transitionErr.From != "new" || transitionErr.To != "completed" {
			t.Errorf("transition error = %s -> %s, want new -> completed", transitionErr.From, transitionErr.To)
		}

		for _, next := range []models.BookingStatus{
			models.BookingStatusPreparation, models.BookingStatusShooting,
			models.BookingStatusDelivery, models.BookingStatusCompleted,
		} {
			status := next
			if _, err := models.UpdateBooking(ctxA, booking.ID, &models.UpdateBookingInput{Status: &status}); err != nil {
				t.Fatalf("transition to %s: %v", next, err)
			}
		}

		cancelled := models.BookingStatusCancelled
		if _, err := models.UpdateBooking(ctxA, booking.ID, &models.UpdateBookingInput{Status: &cancelled}); err == nil {
			t.Error("completed booking must not cancel")
		}
	})

	t.Run("task deliverable must share the booking", func(t *testing.T) {
		bookingOne, err := models.CreateBooking(ctxA, &models.NewBooking{
			Name:        "Task Booking One",
			PackageCost: mmk(10000),
			Deliverables: []*models.NewDeliverable{
				{Name: "Highlight Video"},
			},
		})
		if err != nil {
			t.Fatalf("CreateBooking one: %v", err)
		}
		bookingTwo, err := models.CreateBooking(ctxA, &models.NewBooking{
			Name:        "Task Booking Two",
			PackageCost: mmk(10000),
		})
		if err != nil {
			t.Fatalf("CreateBooking two: %v", err)
		}

		deliverableId := bookingOne.Deliverables[0].ID
		if _, err := models.CreateTask(ctxA, &models.NewTask{
			BookingId:     bookingOne.ID,
			DeliverableId: &deliverableId,
			Name:          "Edit highlight",
			CrewMemberIds: []int{crewA[2].ID},
		}); err != nil {
			t.Fatalf("CreateTask in same booking: %v", err)
		}

		_, err = models.CreateTask(ctxA, &models.NewTask{
			BookingId:     bookingTwo.ID,
			DeliverableId: &deliverableId,
			Name:          "Wrong booking task",
		})
		if !errors.Is(err, utils.ErrorRecordNotFound) {
			t.Fatalf("expected NotFound for foreign deliverable, got %v", err)
		}
	})
}

func startRedisContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("studio-test-redis-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-p", "127.0.0.1:0:6379",
		"redis:7-alpine",
	)
	if err != nil {
		t.Fatalf("start redis container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "6379/tcp")
	if err != nil {
		t.Fatalf("redis docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(60 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "redis-cli", "ping")
		if err == nil {
			return name, port
		}
		time.Sleep(250 * time.Millisecond)
	}
	t.Fatalf("redis did not become ready")
	return "", ""
}

func startMySQLContainer(t *testing.T) (containerName, hostPort string) {
	t.Helper()
	name := fmt.Sprintf("studio-test-mysql-%d", time.Now().UnixNano())
	out, err := dockerRun(
		"run", "-d", "--name", name,
		"-e", "MYSQL_ROOT_PASSWORD=testpw",
		"-e", "MYSQL_DATABASE=studio_test",
		"-p", "127.0.0.1:0:3306",
		"mysql:8.0",
		"--default-authentication-plugin=mysql_native_password",
	)
	if err != nil {
		t.Fatalf("start mysql container: %v\n%s", err, out)
	}
	port, err := dockerHostPort(name, "3306/tcp")
	if err != nil {
		t.Fatalf("mysql docker port: %v", err)
	}
	// wait until ready
	deadline := time.Now().Add(120 * time.Second)
	for time.Now().Before(deadline) {
		_, err := dockerRun("exec", name, "mysqladmin", "ping", "-h", "127.0.0.1", "-ptestpw", "--silent")
		if err == nil {
			return name, port
		}
		time.Sleep(500 * time.Millisecond)
	}
	t.Fatalf("mysql did not become ready")
	return "", ""
}

func dockerHostPort(container, portProto string) (string, error) {
	out, err := dockerRun("port", container, portProto)
	if err != nil {
		return "", fmt.Errorf("docker port: %w: %s", err, out)
	}
	// Example: "127.0.0.1:49154\n"
	re := regexp.MustCompile(`:(\d+)`)
	m := re.FindStringSubmatch(out)
	if len(m) != 2 {
		return "", fmt.Errorf("unexpected docker port output: %q", out)
	}
	return m[1], nil
}

func dockerRmForce(container string) error {
	if strings.TrimSpace(container) == "" {
		return nil
	}
	_, err := dockerRun("rm", "-f", container)
	return err
}

func dockerRun(args ...string) (string, error) {
	cmd := exec.Command("docker", args...)
	b, err := cmd.CombinedOutput()
	return string(b), err
}
