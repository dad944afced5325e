package model

// NetworkAddressAliasCollection is the collection network address aliases are stored in.
const NetworkAddressAliasCollection = "network_address_alias"

// Field names used in the stored representation of a NetworkAddressAlias.
const (
	AliasAddress                    = "address"
	AliasRepresentServiceID         = "represent_service_id"
	AliasRepresentServiceInstanceID = "represent_service_instance_id"
	AliasLastUpdateTimeBucket       = "last_update_time_bucket"
	AliasTimeBucket                 = "time_bucket"
)

// NetworkAddressAlias maps a network address (as observed by a client-side
// probe) to the service and instance it actually represents.
//
// Records are append-only per time bucket: the same address may be stored at
// several buckets and lookups select by bucket lower bound rather than by
// latest-wins identity.
type NetworkAddressAlias struct {
	Address                    string `json:"address"`
	RepresentServiceID         string `json:"represent_service_id"`
	RepresentServiceInstanceID string `json:"represent_service_instance_id"`
	LastUpdateTimeBucket       int64  `json:"last_update_time_bucket"`
	TimeBucket                 int64  `json:"time_bucket"`
}

// ID returns the identity of the alias record.
func (a *NetworkAddressAlias) ID() string {
	return a.Address
}
