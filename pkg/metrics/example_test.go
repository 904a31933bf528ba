package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

// Example_basicUsage demonstrates basic metrics configuration.
func Example_basicUsage() {
	// Create a separate registry for this test
	testRegistry := prometheus.NewRegistry()
	registry := NewRegistry(testRegistry)

	fmt.Printf("Registry created with %d pool metrics\n", 11)
	fmt.Printf("Registry created with %d lease metrics\n", 2)
	fmt.Printf("Registry created with %d schedule metrics\n", 3)

	// Example of accessing metrics
	registry.TasksSubmitted.WithLabelValues("test").Add(10)
	registry.TasksCompleted.WithLabelValues("test").Add(8)
	registry.TasksFailed.WithLabelValues("test").Add(2)

	fmt.Println("Metrics updated successfully")

	// Output:
	// Registry created with 11 pool metrics
	// Registry created with 2 lease metrics
	// Registry created with 3 schedule metrics
	// Metrics updated successfully
}

// Example_customRegistry demonstrates using a custom Prometheus registry.
func Example_customRegistry() {
	// Create a custom registry
	customRegistry := prometheus.NewRegistry()

	config := Config{
		Enabled:  true,
		Registry: customRegistry,
	}

	// Create metrics registry with custom config
	registry := NewRegistry(config.Registry)

	// Test the registry
	registry.PoolCapacity.WithLabelValues("custom_pool").Set(4)
	registry.PoolWorkers.WithLabelValues("custom_pool").Set(4)
	registry.WorkerCrashes.WithLabelValues("custom_pool").Inc()

	fmt.Printf("Custom registry enabled: %v\n", config.Enabled)
	fmt.Println("Custom registry configured with taskpool metrics")

	// Output:
	// Custom registry enabled: true
	// Custom registry configured with taskpool metrics
}

// Example_metricsServer demonstrates setting up a metrics HTTP server.
func Example_metricsServer() {
	// In a real application, you would start a metrics server:
	//
	// http.Handle("/metrics", promhttp.Handler())
	// log.Fatal(http.ListenAndServe(":8080", nil))
	//
	// Available metrics would include:
	// - taskpool_pool_capacity{pool_name="converters"}
	// - taskpool_pool_active_workers{pool_name="converters"}
	// - taskpool_pool_queued_tasks{pool_name="converters"}
	// - taskpool_pool_tasks_submitted_total{pool_name="converters"}
	// - taskpool_pool_worker_crashes_total{pool_name="converters"}
	// - taskpool_schedule_jobs_fired_total{scheduler_name="reports"}
	// And many more...

	fmt.Println("Metrics available at /metrics endpoint")
	fmt.Println("See examples/metrics/main.go for a complete demonstration")

	// Output:
	// Metrics available at /metrics endpoint
	// See examples/metrics/main.go for a complete demonstration
}

// Example_configuration demonstrates different metrics configurations.
func Example_configuration() {
	// Default configuration
	defaultConfig := DefaultConfig()
	fmt.Printf("Default enabled: %v\n", defaultConfig.Enabled)
	fmt.Printf("Default namespace: %s\n", defaultConfig.Namespace)

	// Custom configuration
	customConfig := Config{
		Enabled:   false,
		Namespace: "myapp",
	}
	fmt.Printf("Custom enabled: %v\n", customConfig.Enabled)
	fmt.Printf("Custom namespace: %s\n", customConfig.Namespace)

	// Output:
	// Default enabled: true
	// Default namespace: taskpool
	// Custom enabled: false
	// Custom namespace: myapp
}
