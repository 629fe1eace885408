// Package xgdata holds the static XG descriptor tables and loads them into
// an xgparam.Registry.
//
// The tables cover the system block (00 00 xx), the effect block
// (02 01 xx) with its reverb, chorus and variation effect types, the
// sixteen multi parts (08 pp xx) and the drum setups (3n rr xx).
//
// A Catalog can be extended at startup with YAML descriptor packs that add
// effect types, rename selector keys and override defaults:
//
//	cat := xgdata.NewCatalog()
//	pack, err := xgdata.LoadPack("packs/mu100.yaml")
//	if err != nil {
//	    return err
//	}
//	if err := cat.Merge(pack); err != nil {
//	    return err
//	}
//	reg := xgparam.NewRegistry()
//	if err := xgdata.Populate(reg, cat, xgdata.Options{}); err != nil {
//	    return err
//	}
package xgdata
