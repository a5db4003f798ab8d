package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math/rand"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/protobuf/types/known/structpb"

	iotGrpc "liyu1981.xyz/tablet-telemetry-service/pkg/grpc"
)

var maxDevices int = 1000
var rounds int = 5
var httpHostPort string = "127.0.0.1:1080"
var grpcHostPort string = "127.0.0.1:10801"

var grpcClient iotGrpc.TelemetryServiceClient

var rnd *rand.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
var rndMu sync.Mutex

var foregroundApps = []string{
	"com.myob.accountright",
	"com.zebra.scanner",
	"com.android.launcher",
	"com.android.chrome",
}

var failures atomic.Int64

func main() {
	deviceIDs := make([]string, maxDevices)
	for i := range maxDevices {
		deviceIDs[i] = "bench-" + uuid.NewString()[:8]
	}
	fmt.Printf("generated %v device IDs\n", maxDevices)

	resp, err := http.Get(fmt.Sprintf("http://%s/healthz", httpHostPort))
	if err != nil {
		log.Fatal("Failed to connect to HTTP server:", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		log.Fatal("HTTP server not available")
	}

	fmt.Printf("http server verified\n")

	conn, err := grpc.NewClient(grpcHostPort, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		log.Fatal("Failed to connect to gRPC server:", err)
	}
	defer conn.Close()
	grpcClient = iotGrpc.NewTelemetryServiceClient(conn)

	fmt.Printf("gRPC server verified and connected\n")

	var startTime time.Time
	var usedTime time.Duration

	startTime = time.Now()
	wg := sync.WaitGroup{}
	for i := range maxDevices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			raiseLimiter(deviceIDs[i])
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"raised limiter for %v devices: used time=%v seconds, throughput=%v action/second\n",
		maxDevices, usedTime.Seconds(), float64(maxDevices)/usedTime.Seconds(),
	)

	startTime = time.Now()
	wg = sync.WaitGroup{}
	for i := range maxDevices {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range rounds {
				postTelemetry(deviceIDs[i])
			}
		}()
	}
	wg.Wait()
	usedTime = time.Since(startTime)

	fmt.Printf(
		"posted %v payloads: used time=%v seconds, throughput=%v payload/second, failures=%v\n",
		maxDevices*rounds, usedTime.Seconds(), float64(maxDevices*rounds)/usedTime.Seconds(), failures.Load(),
	)

	startTime = time.Now()
	snapshot, err := grpcClient.GetAnalytics(context.Background(), &structpb.Struct{})
	if err != nil {
		log.Fatal("GetAnalytics failed:", err)
	}
	raw, _ := json.MarshalIndent(snapshot.AsMap(), "", "  ")
	fmt.Printf("analytics computed in %v:\n%s\n", time.Since(startTime), raw)
}

func flipCoin() bool {
	rndMu.Lock()
	defer rndMu.Unlock()
	return rnd.Int31n(100000)%2 == 0
}

func rndInt(min, max int) int {
	rndMu.Lock()
	defer rndMu.Unlock()
	return min + rnd.Intn(max-min+1)
}

func raiseLimiter(deviceID string) {
	payload := map[string]any{"device_id": deviceID, "rate": 1000, "burst": 100}

	if flipCoin() {
		jsonData, _ := json.Marshal(payload)
		resp, err := http.Post(fmt.Sprintf("http://%s/devices/%s/limiter", httpHostPort, deviceID), "application/json", bytes.NewBuffer(jsonData))
		if err != nil {
			panic(err)
		}
		defer resp.Body.Close()
	} else {
		req, _ := structpb.NewStruct(payload)
		if _, err := grpcClient.PostLimiter(context.Background(), req); err != nil {
			panic(err)
		}
	}
}

func postTelemetry(deviceID string) {
	payload := map[string]any{
		"device_id":   deviceID,
		"device_name": "Bench " + deviceID,
		"device_metrics": map[string]any{
			"battery_level": rndInt(5, 100),
			"cpu_usage":     float64(rndInt(0, 1000)) / 10,
		},
		"network_metrics": map[string]any{
			"connectivity_status":  "online",
			"wifi_signal_strength": rndInt(-90, -30),
		},
		"app_metrics": map[string]any{
			"screen_state":     "active",
			"app_foreground":   foregroundApps[rndInt(0, len(foregroundApps)-1)],
			"inactive_seconds": rndInt(0, 600),
		},
	}

	if flipCoin() {
		jsonData, _ := json.Marshal(payload)
		resp, err := http.Post(fmt.Sprintf("http://%s/telemetry", httpHostPort), "application/json", bytes.NewBuffer(jsonData))
		if err != nil {
			panic(err)
		}
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			failures.Add(1)
		}
	} else {
		req, _ := structpb.NewStruct(payload)
		if _, err := grpcClient.Ingest(context.Background(), req); err != nil {
			failures.Add(1)
		}
	}
}
