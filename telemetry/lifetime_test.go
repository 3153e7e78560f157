package telemetry

import "testing"

func TestLifetimeTracker(t *testing.T) {
	lt := NewLifetimeTracker(0.5)
	lt.Register(7, "shield", 10)

	lt.RecordShot(7, 10)
	lt.RecordShot(7, 8)
	lt.RecordKill(7)
	lt.RecordUpgrade(7, 2)
	lt.RecordLink(7)
	lt.RecordShot(99, 100) // untracked tower ignored

	rec := lt.Get(7)
	if rec == nil || rec.Shots != 2 || rec.DamageDealt != 18 || rec.Kills != 1 || rec.Level != 2 || rec.LinksCreated != 1 {
		t.Fatalf("record = %+v", rec)
	}
	if rec.DestroyedTick != -1 {
		t.Errorf("DestroyedTick = %d while alive, want -1", rec.DestroyedTick)
	}

	done := lt.Remove(7, 30)
	if done == nil || done.DestroyedTick != 30 || !approxEqual(done.SurvivalTimeSec, 10, 1e-9) {
		t.Errorf("removed record = %+v", done)
	}
	if lt.Count() != 0 || lt.Remove(7, 31) != nil {
		t.Error("tower still tracked after Remove")
	}
}
