package timer

import (
	"sync"
	"testing"
	"time"
)

func TestManager_Schedule(t *testing.T) {
	m := NewManager()
	m.Start()
	defer m.Stop()

	executed := false
	var mu sync.Mutex

	err := m.Schedule("test1", time.Now().Add(100*time.Millisecond), func() {
		mu.Lock()
		executed = true
		mu.Unlock()
	})

	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	if !executed {
		t.Error("Task was not executed")
	}
	mu.Unlock()
}

func TestManager_Cancel(t *testing.T) {
	m := NewManager()
	m.Start()
	defer m.Stop()

	executed := false
	var mu sync.Mutex

	err := m.Schedule("test1", time.Now().Add(100*time.Millisecond), func() {
		mu.Lock()
		executed = true
		mu.Unlock()
	})

	if err != nil {
		t.Fatalf("Schedule failed: %v", err)
	}

	if !m.Cancel("test1") {
		t.Error("Cancel returned false")
	}

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	if executed {
		t.Error("Task was executed despite being cancelled")
	}
	mu.Unlock()
}

func TestManager_MultipleTasksOrdering(t *testing.T) {
	m := NewManager()
	m.Start()
	defer m.Stop()

	var results []int
	var mu sync.Mutex

	// Schedule tasks in reverse order
	m.Schedule("task3", time.Now().Add(150*time.Millisecond), func() {
		mu.Lock()
		results = append(results, 3)
		mu.Unlock()
	})

	m.Schedule("task1", time.Now().Add(50*time.Millisecond), func() {
		mu.Lock()
		results = append(results, 1)
		mu.Unlock()
	})

	m.Schedule("task2", time.Now().Add(100*time.Millisecond), func() {
		mu.Lock()
		results = append(results, 2)
		mu.Unlock()
	})

	time.Sleep(200 * time.Millisecond)

	mu.Lock()
	if len(results) != 3 {
		t.Errorf("Expected 3 results, got %d", len(results))
	}
	if results[0] != 1 || results[1] != 2 || results[2] != 3 {
		t.Errorf("Tasks executed in wrong order: %v", results)
	}
	mu.Unlock()
}

func TestManager_RescheduleExisting(t *testing.T) {
	m := NewManager()
	m.Start()
	defer m.Stop()

	count := 0
	var mu sync.Mutex

	m.Schedule("test1", time.Now().Add(100*time.Millisecond), func() {
		mu.Lock()
		count++
		mu.Unlock()
	})

	// Reschedule with same ID (should replace)
	m.Schedule("test1", time.Now().Add(50*time.Millisecond), func() {
		mu.Lock()
		count += 10
		mu.Unlock()
	})

	time.Sleep(150 * time.Millisecond)

	mu.Lock()
	if count != 10 {
		t.Errorf("Expected count=10 (only second task), got %d", count)
	}
	mu.Unlock()
}

func TestManager_Pending(t *testing.T) {
	m := NewManager()
	m.Start()
	defer m.Stop()

	m.Schedule("task1", time.Now().Add(1*time.Hour), func() {})
	m.Schedule("task2", time.Now().Add(2*time.Hour), func() {})
	m.Schedule("task3", time.Now().Add(3*time.Hour), func() {})

	if m.Pending() != 3 {
		t.Errorf("Expected 3 pending tasks, got %d", m.Pending())
	}
}
