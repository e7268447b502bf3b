package storage

import (
	"encoding/json"

	"github.com/pkg/errors"

	"evonet/internal/model"
)

const (
	CurrentSchemaVersion = 1
	CurrentCodecVersion  = 1
)

var ErrVersionMismatch = errors.New("record version mismatch")

// Versioned stamps a record with the current schema and codec versions.
func Versioned() model.VersionedRecord {
	return model.VersionedRecord{SchemaVersion: CurrentSchemaVersion, CodecVersion: CurrentCodecVersion}
}

func EncodeRun(r model.RunRecord) ([]byte, error) {
	return json.Marshal(r)
}

func DecodeRun(data []byte) (model.RunRecord, error) {
	var run model.RunRecord
	if err := json.Unmarshal(data, &run); err != nil {
		return model.RunRecord{}, err
	}
	if err := checkVersion(run.VersionedRecord); err != nil {
		return model.RunRecord{}, err
	}
	return run, nil
}

func EncodeGenerations(generations []model.GenerationRecord) ([]byte, error) {
	return json.Marshal(generations)
}

func DecodeGenerations(data []byte) ([]model.GenerationRecord, error) {
	var generations []model.GenerationRecord
	if err := json.Unmarshal(data, &generations); err != nil {
		return nil, err
	}
	return generations, nil
}

func EncodeChampion(c model.ChampionRecord) ([]byte, error) {
	return json.Marshal(c)
}

func DecodeChampion(data []byte) (model.ChampionRecord, error) {
	var champion model.ChampionRecord
	if err := json.Unmarshal(data, &champion); err != nil {
		return model.ChampionRecord{}, err
	}
	if err := checkVersion(champion.VersionedRecord); err != nil {
		return model.ChampionRecord{}, err
	}
	return champion, nil
}

func checkVersion(v model.VersionedRecord) error {
	if v.SchemaVersion != CurrentSchemaVersion || v.CodecVersion != CurrentCodecVersion {
		return errors.Wrapf(ErrVersionMismatch, "schema=%d codec=%d", v.SchemaVersion, v.CodecVersion)
	}
	return nil
}
