package cmd

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"sync"
	"time"

	domain "course-routine/internal/domain/scheduling"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
)

// LoadTestConfig holds configuration for load testing
type LoadTestConfig struct {
	BaseURL         string
	ConcurrentUsers int
	Rounds          int
	Program         string
}

// LoadTestResult holds the results of load testing
type LoadTestResult struct {
	TotalRequests     int
	SuccessfulReqs    int
	ConflictReqs      int
	FailedReqs        int
	AvgResponseTimeMs float64
	MaxResponseTimeMs int64
	MinResponseTimeMs int64
	ThroughputRPS     float64
	ErrorsByType      map[string]int
	// slot label to number of admissions that won it
	WinnersBySlot map[string]int
}

// racer is one contender: its own teacher and course so only the room is contested
type racer struct {
	teacherID uuid.UUID
	courseID  uuid.UUID
}

type raceTarget struct {
	dayID  int
	slotID int
	label  string
}

// LoadTester races concurrent admissions for a single room against the API
type LoadTester struct {
	config    LoadTestConfig
	client    *http.Client
	runID     string
	roomID    uuid.UUID
	racers    []racer
	targets   []raceTarget
	results   LoadTestResult
	mutex     sync.Mutex
	startTime time.Time
}

type apiEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// NewLoadTester creates a new load tester
func NewLoadTester(config LoadTestConfig) *LoadTester {
	return &LoadTester{
		config: config,
		client: &http.Client{
			Timeout: 30 * time.Second,
		},
		runID:   uuid.NewString()[:6],
		racers:  make([]racer, 0, config.ConcurrentUsers),
		results: newLoadTestResult(),
	}
}

func newLoadTestResult() LoadTestResult {
	return LoadTestResult{
		ErrorsByType:  make(map[string]int),
		WinnersBySlot: make(map[string]int),
	}
}

// Initialize creates the contested room plus one teacher and course per racer
func (lt *LoadTester) Initialize() error {
	fmt.Println("Initializing load test fixtures...")

	var room domain.Room
	err := lt.post("/api/v1/rooms", domain.CreateRoomRequest{
		RoomNumber: "LT-" + lt.runID,
		Capacity:   60,
	}, &room)
	if err != nil {
		return fmt.Errorf("create room: %w", err)
	}
	lt.roomID = room.RoomID

	for i := 0; i < lt.config.ConcurrentUsers; i++ {
		var teacher domain.Teacher
		err := lt.post("/api/v1/teachers", domain.CreateTeacherRequest{
			Name:  fmt.Sprintf("Load Tester %d", i+1),
			Email: fmt.Sprintf("lt-%s-%d@loadtest.local", lt.runID, i+1),
		}, &teacher)
		if err != nil {
			return fmt.Errorf("create teacher %d: %w", i+1, err)
		}

		var course domain.Course
		err = lt.post("/api/v1/courses", domain.CreateCourseRequest{
			CourseCode:  fmt.Sprintf("LT%s-%d", lt.runID, i+1),
			CourseName:  fmt.Sprintf("Load Test Course %d", i+1),
			CreditHours: 3.0,
			Program:     lt.config.Program,
			CourseType:  string(domain.CourseTypeTheory),
		}, &course)
		if err != nil {
			return fmt.Errorf("create course %d: %w", i+1, err)
		}

		lt.racers = append(lt.racers, racer{teacherID: teacher.TeacherID, courseID: course.CourseID})
	}

	var days []domain.Day
	if err := lt.get("/api/v1/days", &days); err != nil {
		return fmt.Errorf("list days: %w", err)
	}
	var slots []domain.TimeSlot
	if err := lt.get("/api/v1/time-slots?type=Theory", &slots); err != nil {
		return fmt.Errorf("list time slots: %w", err)
	}
	for _, d := range days {
		for _, s := range slots {
			lt.targets = append(lt.targets, raceTarget{
				dayID:  d.DayID,
				slotID: s.SlotID,
				label:  fmt.Sprintf("%s %s", d.DayName, s.Label()),
			})
		}
	}
	if len(lt.targets) < lt.config.Rounds {
		return fmt.Errorf("only %d day/slot pairs available for %d rounds", len(lt.targets), lt.config.Rounds)
	}

	fmt.Printf("Created room %s, %d teachers and %d courses (run %s)\n",
		room.RoomNumber, len(lt.racers), len(lt.racers), lt.runID)
	return nil
}

// RunLoadTest fires every racer at the same room, day and slot once per round
func (lt *LoadTester) RunLoadTest() {
	fmt.Printf("Starting admission race with %d concurrent racers over %d rounds...\n",
		lt.config.ConcurrentUsers, lt.config.Rounds)

	lt.startTime = time.Now()

	for round := 0; round < lt.config.Rounds; round++ {
		target := lt.targets[round]
		start := make(chan struct{})
		var wg sync.WaitGroup

		for i := range lt.racers {
			wg.Add(1)
			go func(r racer) {
				defer wg.Done()
				<-start
				lt.simulateAdmission(r, target)
			}(lt.racers[i])
		}

		close(start)
		wg.Wait()
	}

	lt.calculateMetrics()
	lt.printResults()
}

// simulateAdmission submits one allocation request for target
func (lt *LoadTester) simulateAdmission(r racer, target raceTarget) {
	startTime := time.Now()

	reqBody := domain.AdmitRequest{
		TeacherID: r.teacherID,
		CourseID:  r.courseID,
		RoomID:    lt.roomID,
		DayID:     target.dayID,
		SlotID:    target.slotID,
		Program:   lt.config.Program,
		Section:   1,
	}

	jsonData, err := json.Marshal(reqBody)
	if err != nil {
		lt.recordError("json_marshal")
		return
	}

	req, err := http.NewRequest(http.MethodPost, lt.config.BaseURL+"/api/v1/allocations", bytes.NewBuffer(jsonData))
	if err != nil {
		lt.recordError("http_request")
		return
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", uuid.NewString())

	resp, err := lt.client.Do(req)
	responseTime := time.Since(startTime)
	if err != nil {
		lt.recordError("http_request")
		return
	}
	defer resp.Body.Close()

	lt.recordResponse(resp.StatusCode, responseTime, target.label)
}

// recordResponse records the response metrics
func (lt *LoadTester) recordResponse(statusCode int, responseTime time.Duration, slot string) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	responseTimeMs := responseTime.Milliseconds()

	if lt.results.MaxResponseTimeMs < responseTimeMs {
		lt.results.MaxResponseTimeMs = responseTimeMs
	}

	if lt.results.MinResponseTimeMs == 0 || lt.results.MinResponseTimeMs > responseTimeMs {
		lt.results.MinResponseTimeMs = responseTimeMs
	}

	currentAvg := lt.results.AvgResponseTimeMs
	currentCount := float64(lt.results.TotalRequests)
	lt.results.AvgResponseTimeMs = (currentAvg*(currentCount-1) + float64(responseTimeMs)) / currentCount

	switch {
	case statusCode == http.StatusCreated:
		lt.results.SuccessfulReqs++
		lt.results.WinnersBySlot[slot]++
	case statusCode == http.StatusConflict:
		lt.results.ConflictReqs++
	default:
		lt.results.FailedReqs++
		lt.results.ErrorsByType[fmt.Sprintf("http_%d", statusCode)]++
	}
}

// recordError records an error that occurred during testing
func (lt *LoadTester) recordError(errorType string) {
	lt.mutex.Lock()
	defer lt.mutex.Unlock()

	lt.results.TotalRequests++
	lt.results.FailedReqs++
	lt.results.ErrorsByType[errorType]++
}

// calculateMetrics calculates final test metrics
func (lt *LoadTester) calculateMetrics() {
	totalDuration := time.Since(lt.startTime)
	lt.results.ThroughputRPS = float64(lt.results.TotalRequests) / totalDuration.Seconds()
}

// printResults displays the load test results
func (lt *LoadTester) printResults() {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("ADMISSION RACE RESULTS")
	fmt.Println(strings.Repeat("=", 80))

	fmt.Printf("Test Configuration:\n")
	fmt.Printf("  - Concurrent Racers: %d\n", lt.config.ConcurrentUsers)
	fmt.Printf("  - Rounds: %d\n", lt.config.Rounds)
	fmt.Printf("  - Program: %s\n", lt.config.Program)

	total := float64(lt.results.TotalRequests)
	if total == 0 {
		total = 1
	}
	fmt.Printf("\nOverall Outcome:\n")
	fmt.Printf("  - Total Requests: %d\n", lt.results.TotalRequests)
	fmt.Printf("  - Admitted (201): %d (%.2f%%)\n",
		lt.results.SuccessfulReqs, float64(lt.results.SuccessfulReqs)/total*100)
	fmt.Printf("  - Rejected (409): %d (%.2f%%)\n",
		lt.results.ConflictReqs, float64(lt.results.ConflictReqs)/total*100)
	fmt.Printf("  - Failed: %d (%.2f%%)\n",
		lt.results.FailedReqs, float64(lt.results.FailedReqs)/total*100)

	fmt.Printf("\nResponse Time Metrics:\n")
	fmt.Printf("  - Average: %.2f ms\n", lt.results.AvgResponseTimeMs)
	fmt.Printf("  - Minimum: %d ms\n", lt.results.MinResponseTimeMs)
	fmt.Printf("  - Maximum: %d ms\n", lt.results.MaxResponseTimeMs)

	fmt.Printf("\nThroughput:\n")
	fmt.Printf("  - Requests per Second: %.2f\n", lt.results.ThroughputRPS)

	if len(lt.results.ErrorsByType) > 0 {
		fmt.Printf("\nError Breakdown:\n")
		for errorType, count := range lt.results.ErrorsByType {
			fmt.Printf("  - %s: %d\n", errorType, count)
		}
	}
}

// Verify reports every round that admitted more than one racer
func (lt *LoadTester) Verify() bool {
	passed := true
	fmt.Printf("\nDouble Booking Check:\n")
	for round := 0; round < lt.config.Rounds; round++ {
		label := lt.targets[round].label
		winners := lt.results.WinnersBySlot[label]
		switch {
		case winners > 1:
			fmt.Printf("  FAIL %s: %d admissions for one room\n", label, winners)
			passed = false
		case winners == 0:
			fmt.Printf("  WARN %s: no admission succeeded\n", label)
		default:
			fmt.Printf("  OK   %s: exactly one admission\n", label)
		}
	}
	return passed
}

// RunConcurrencyStressTest repeats the race with increasing racer counts
func (lt *LoadTester) RunConcurrencyStressTest() bool {
	fmt.Println("\n" + strings.Repeat("=", 80))
	fmt.Println("CONCURRENCY STRESS TEST")
	fmt.Println(strings.Repeat("=", 80))

	passed := true
	for _, concurrency := range []int{10, 50, 100, 200} {
		fmt.Printf("\nTesting with %d concurrent racers...\n", concurrency)

		stage := NewLoadTester(LoadTestConfig{
			BaseURL:         lt.config.BaseURL,
			ConcurrentUsers: concurrency,
			Rounds:          1,
			Program:         lt.config.Program,
		})
		if err := stage.Initialize(); err != nil {
			fmt.Printf("  fixture setup failed: %v\n", err)
			return false
		}
		stage.RunLoadTest()
		if !stage.Verify() {
			passed = false
		}

		time.Sleep(2 * time.Second)
	}
	return passed
}

func (lt *LoadTester) post(path string, body any, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return err
	}
	resp, err := lt.client.Post(lt.config.BaseURL+path, "application/json", bytes.NewBuffer(payload))
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp, out)
}

func (lt *LoadTester) get(path string, out any) error {
	resp, err := lt.client.Get(lt.config.BaseURL + path)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	return decodeEnvelope(resp, out)
}

func decodeEnvelope(resp *http.Response, out any) error {
	var env apiEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decode response (HTTP %d): %w", resp.StatusCode, err)
	}
	if resp.StatusCode >= 300 || !env.Success {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, env.Message)
	}
	if out == nil || len(env.Data) == 0 {
		return nil
	}
	return json.Unmarshal(env.Data, out)
}

// loadtestCmd represents the loadtest command
var loadtestCmd = &cobra.Command{
	Use:   "loadtest",
	Short: "Race concurrent admissions against a running server",
	Long: `Race concurrent allocation requests against a running server.
Every racer has its own teacher and course but targets the same room, day and
time slot, so exactly one admission per round may succeed and the rest must be
rejected with 409. The command exits non-zero if any round admits more than one.`,
	Run: func(cmd *cobra.Command, args []string) {
		runLoadTest()
	},
}

var (
	baseURL         string
	concurrentUsers int
	raceRounds      int
	raceProgram     string
	stressTest      bool
)

func init() {
	rootCmd.AddCommand(loadtestCmd)

	loadtestCmd.Flags().StringVar(&baseURL, "url", "http://localhost:8080", "Base URL of the routine API")
	loadtestCmd.Flags().IntVar(&concurrentUsers, "concurrent", 50, "Number of concurrent racers per round")
	loadtestCmd.Flags().IntVar(&raceRounds, "rounds", 3, "Number of day/slot pairs to race for")
	loadtestCmd.Flags().StringVar(&raceProgram, "program", "CSE", "Program the racing courses belong to")
	loadtestCmd.Flags().BoolVar(&stressTest, "stress", false, "Run concurrency stress test")
}

func runLoadTest() {
	config := LoadTestConfig{
		BaseURL:         strings.TrimRight(baseURL, "/"),
		ConcurrentUsers: concurrentUsers,
		Rounds:          raceRounds,
		Program:         raceProgram,
	}

	fmt.Println("Course Routine Admission Race")
	fmt.Println("=============================")

	loadTester := NewLoadTester(config)
	if err := loadTester.Initialize(); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize fixtures: %v\n", err)
		os.Exit(1)
	}

	loadTester.RunLoadTest()
	passed := loadTester.Verify()

	if stressTest && !loadTester.RunConcurrencyStressTest() {
		passed = false
	}

	if !passed {
		fmt.Println("\nDouble booking detected")
		os.Exit(1)
	}
	fmt.Println("\nNo double bookings")
}
