// Package influxdb provides InfluxDB v2 connectivity for the HAP metrics
// module.
//
// It wraps the official influxdb-client-go v2 library: token
// authentication, a connectivity check on Connect, the non-blocking batched
// write API and health monitoring.
//
// # Usage
//
//	client, err := influxdb.Connect(config.InfluxDBConfig{
//	    Enabled: true,
//	    URL:     "http://localhost:8086",
//	    Token:   "your-token",
//	    Org:     "hap",
//	    Bucket:  "engine",
//	})
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	client.WriteRuntime("HAP", runID, influxdb.ReadRuntime(updates))
//
// Writes are batched and sent asynchronously; failures arrive through the
// SetOnError callback.
package influxdb
