// Command gen-scanlog generates a synthetic .scanlog recording for testing
// replay: a stationary initialization phase followed by a constant-rate turn.
package main

import (
	"flag"
	"log"
	"math/rand"

	"github.com/banshee-data/odometry.report/internal/imu"
	"github.com/banshee-data/odometry.report/internal/scanlog"
	"github.com/banshee-data/odometry.report/internal/so3"
)

var (
	output    = flag.String("o", "sample.scanlog", "output path")
	scans     = flag.Int("n", 50, "number of scans")
	scanHz    = flag.Float64("scan-hz", 10, "scan rate")
	imuHz     = flag.Float64("imu-hz", 100, "IMU sample rate")
	turnRate  = flag.Float64("turn-rate", 0.3, "yaw rate after initialization (rad/s)")
	noiseStd  = flag.Float64("noise", 0.01, "additive sensor noise stddev")
	numPoints = flag.Int("points", 2000, "points per scan")
)

func main() {
	flag.Parse()

	w, err := scanlog.NewWriter(*output)
	if err != nil {
		log.Fatalf("failed to create scan log: %v", err)
	}
	defer w.Close()

	rng := rand.New(rand.NewSource(42))
	noise := *noiseStd
	scanPeriod := 1.0 / *scanHz
	imuPeriod := 1.0 / *imuHz
	samplesPerScan := int(scanPeriod / imuPeriod)

	t := 0.0
	for i := 0; i < *scans; i++ {
		start := t
		end := t + scanPeriod

		// First few scans are stationary so the processor can initialize.
		yawRate := *turnRate
		if i < 5 {
			yawRate = 0
		}

		pkg := &imu.ScanPackage{
			ScanStartTime: start,
			ScanEndTime:   end,
		}
		for s := 0; s < samplesPerScan; s++ {
			pkg.Samples = append(pkg.Samples, imu.Sample{
				Timestamp: start + float64(s)*imuPeriod,
				Acc: so3.Vec3{
					rng.NormFloat64()*noise,
					rng.NormFloat64()*noise,
					9.81 + rng.NormFloat64()*noise,
				},
				Gyro: so3.Vec3{
					rng.NormFloat64()*noise,
					rng.NormFloat64()*noise,
					yawRate + rng.NormFloat64()*noise,
				},
			})
		}

		for pt := 0; pt < *numPoints; pt++ {
			pkg.Points = append(pkg.Points, imu.Point{
				X:                rng.Float64()*20 - 10,
				Y:                rng.Float64()*20 - 10,
				Z:                rng.Float64() * 3,
				Intensity:        uint8(rng.Intn(256)),
				TimeOffsetMillis: float64(pt) / float64(*numPoints) * scanPeriod * 1000,
			})
		}

		if err := w.Write(pkg); err != nil {
			log.Fatalf("failed to write scan %d: %v", i, err)
		}
		t = end
		if (i+1)%10 == 0 {
			log.Printf("%d/%d scans", i+1, *scans)
		}
	}

	log.Printf("✓ Created: %s", *output)
}
