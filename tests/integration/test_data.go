package integration

import (
	"fmt"
	"sync/atomic"
	"time"
)

var seedCounter int64

// TestStudentIdentity generates a unique student number and email so tests
// can share one database without colliding.
func TestStudentIdentity() (studentNumber, email string) {
	n := atomic.AddInt64(&seedCounter, 1)
	year := time.Now().Year()
	studentNumber = fmt.Sprintf("%d-%04d", year, n)
	email = fmt.Sprintf("student-%d-%d@example.com", time.Now().Unix(), n)
	return
}

// TestStaffEmail generates a unique staff email address.
func TestStaffEmail() string {
	n := atomic.AddInt64(&seedCounter, 1)
	return fmt.Sprintf("staff-%d-%d@university.edu", time.Now().Unix(), n)
}
