package networkalias

import (
	"github.com/alfredjeanlab/skyrecords/internal/model"
	"github.com/alfredjeanlab/skyrecords/internal/store"
)

// Codec converts network address aliases to and from stored rows.
type Codec struct{}

var _ store.Codec[*model.NetworkAddressAlias] = Codec{}

func (Codec) Encode(a *model.NetworkAddressAlias) (store.Row, error) {
	return store.Row{
		ID: a.ID(),
		Fields: map[string]any{
			model.AliasAddress:                    a.Address,
			model.AliasRepresentServiceID:         a.RepresentServiceID,
			model.AliasRepresentServiceInstanceID: a.RepresentServiceInstanceID,
			model.AliasLastUpdateTimeBucket:       a.LastUpdateTimeBucket,
			model.AliasTimeBucket:                 a.TimeBucket,
		},
	}, nil
}

func (Codec) Decode(r store.Row) (*model.NetworkAddressAlias, error) {
	a := &model.NetworkAddressAlias{Address: r.ID}
	var err error
	if a.RepresentServiceID, err = r.String(model.AliasRepresentServiceID); err != nil {
		return nil, err
	}
	if a.RepresentServiceInstanceID, err = r.String(model.AliasRepresentServiceInstanceID); err != nil {
		return nil, err
	}
	if a.LastUpdateTimeBucket, err = r.Int64(model.AliasLastUpdateTimeBucket); err != nil {
		return nil, err
	}
	if a.TimeBucket, err = r.Int64(model.AliasTimeBucket); err != nil {
		return nil, err
	}
	return a, nil
}
