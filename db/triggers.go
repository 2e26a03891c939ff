package db

import (
	"fmt"

	"gorm.io/gorm"
)

// Capacity guard for sqlite/libsql. The count excludes the row being written
// and every soft-deleted or non-confirmed row; the ceiling comes from the
// services table. A missing services row disables the guard for that write
// (capacity is then enforced by the application checks alone).
const sqliteCapacityGuardInsert = `
CREATE TRIGGER IF NOT EXISTS appointments_capacity_guard_insert
BEFORE INSERT ON appointments
FOR EACH ROW
WHEN NEW.status = 'confirmed' AND NEW.deleted_at IS NULL AND (
    SELECT COUNT(*) FROM appointments a
    WHERE a.tenant_id = NEW.tenant_id
      AND a.service_id = NEW.service_id
      AND a.id != NEW.id
      AND a.status = 'confirmed'
      AND a.deleted_at IS NULL
      AND a.slot_start < NEW.slot_end
      AND a.slot_end > NEW.slot_start
) >= (SELECT s.max_simultaneous_bookings FROM services s WHERE s.id = NEW.service_id)
BEGIN
    SELECT RAISE(ABORT, 'capacity exceeded');
END;`

const sqliteCapacityGuardUpdate = `
CREATE TRIGGER IF NOT EXISTS appointments_capacity_guard_update
BEFORE UPDATE OF status, slot_start, slot_end, service_id ON appointments
FOR EACH ROW
WHEN NEW.status = 'confirmed' AND NEW.deleted_at IS NULL AND (
    SELECT COUNT(*) FROM appointments a
    WHERE a.tenant_id = NEW.tenant_id
      AND a.service_id = NEW.service_id
      AND a.id != NEW.id
      AND a.status = 'confirmed'
      AND a.deleted_at IS NULL
      AND a.slot_start < NEW.slot_end
      AND a.slot_end > NEW.slot_start
) >= (SELECT s.max_simultaneous_bookings FROM services s WHERE s.id = NEW.service_id)
BEGIN
    SELECT RAISE(ABORT, 'capacity exceeded');
END;`

const postgresCapacityGuardFunction = `
CREATE OR REPLACE FUNCTION appointments_capacity_guard() RETURNS trigger AS $$
DECLARE
    used_count integer;
    cap integer;
BEGIN
    IF NEW.status <> 'confirmed' OR NEW.deleted_at IS NOT NULL THEN
        RETURN NEW;
    END IF;

    SELECT max_simultaneous_bookings INTO cap FROM services WHERE id = NEW.service_id;
    IF cap IS NULL THEN
        RETURN NEW;
    END IF;

    SELECT COUNT(*) INTO used_count FROM appointments a
    WHERE a.tenant_id = NEW.tenant_id
      AND a.service_id = NEW.service_id
      AND a.id <> NEW.id
      AND a.status = 'confirmed'
      AND a.deleted_at IS NULL
      AND a.slot_start < NEW.slot_end
      AND a.slot_end > NEW.slot_start;

    IF used_count >= cap THEN
        RAISE EXCEPTION 'capacity exceeded';
    END IF;

    RETURN NEW;
END;
$$ LANGUAGE plpgsql;`

const postgresCapacityGuardTrigger = `
DROP TRIGGER IF EXISTS appointments_capacity_guard ON appointments;
CREATE TRIGGER appointments_capacity_guard
BEFORE INSERT OR UPDATE OF status, slot_start, slot_end, service_id ON appointments
FOR EACH ROW EXECUTE FUNCTION appointments_capacity_guard();`

// InstallCapacityGuard creates the database trigger that rejects any
// appointment write violating the capacity invariant. It is the last line of
// defense behind the application-level checks and must run after the
// appointments and services tables exist.
func InstallCapacityGuard(gdb *gorm.DB) error {
	switch gdb.Dialector.Name() {
	case "postgres":
		if err := gdb.Exec(postgresCapacityGuardFunction).Error; err != nil {
			return fmt.Errorf("failed to create capacity guard function: %w", err)
		}
		if err := gdb.Exec(postgresCapacityGuardTrigger).Error; err != nil {
			return fmt.Errorf("failed to create capacity guard trigger: %w", err)
		}
	default:
		if err := gdb.Exec(sqliteCapacityGuardInsert).Error; err != nil {
			return fmt.Errorf("failed to create capacity guard insert trigger: %w", err)
		}
		if err := gdb.Exec(sqliteCapacityGuardUpdate).Error; err != nil {
			return fmt.Errorf("failed to create capacity guard update trigger: %w", err)
		}
	}
	return nil
}
