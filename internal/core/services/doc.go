// Package services contains the core business logic, implementing the
// driving ports by orchestrating driven ports. Services are
// infrastructure-free: indices, stores, and model providers are
// injected as interfaces.
package services
