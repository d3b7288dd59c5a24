package model

// CalcPrefix marks derived fields that never exist literally in a method.
const CalcPrefix = "calc_"

// Document parameters the engine reads directly.
const (
	ScanMode         Name = "Mode_ScanMode"
	IonPolarity      Name = "Mode_IonPolarity"
	CalibrationMark  Name = "Calibration_MarkSegment"
	ImeXMode         Name = "IMS_imeX_Mode"
	RampStart        Name = "IMS_imeX_RampStart"
	RampEnd          Name = "IMS_imeX_RampEnd"
	RampTime         Name = "IMS_imeX_RampTime"
	AccumulationTime Name = "IMS_imeX_AccumulationTime"
	DutyCycleLock    Name = "IMS_imeX_DutyCycleLock"
	ICCMode          Name = "IMSICC_Mode"
	QuenchTime       Name = "Collision_QuenchTime_Set"
	PasefNumRamps    Name = "MSMS_Pasef_NumRampsPerCycle"
	PolygonMass      Name = "IMS_PolygonFilter_Mass"
	PolygonMobility  Name = "IMS_PolygonFilter_Mobility"

	RampingAdvancedActive Name = "Energy_Ramping_Advanced_Settings_Active"
	RampingCollisionPair  Name = "Energy_Ramping_Collision_Energy_StartEnd"
	RampingMobilityPair   Name = "Energy_Ramping_Mobility_StartEnd"
	RampingCollisionStep2 Name = "Energy_Ramping_Collision_Energy_StartEnd_Tims_Step_2"
	AdvancedMobilityList  Name = "Energy_Ramping_Advanced_ListMobilityValues"
	AdvancedEnergyList    Name = "Energy_Ramping_Advanced_ListCollisionEnergyValues"
	AdvancedEntryTypeList Name = "Energy_Ramping_Advanced_ListEntryType"

	SteppingActive        Name = "Ims_Stepping_Active"
	SteppingCollisionRF   Name = "Ims_CollisionCellRF_Steps"
	SteppingTransferTime  Name = "Ims_TransferTimeSteps"
	SteppingPrePulseStore Name = "Ims_PrePulseStorageTimeSteps"
)

// Derived fields.
const (
	CalcScanMode       Name = "calc_scan_mode"
	CalcSegmentStart   Name = "calc_segment_start_time"
	CalcSegmentEnd     Name = "calc_segment_end_time"
	CalcCERampingStart Name = "calc_ce_ramping_start"
	CalcCERampingEnd   Name = "calc_ce_ramping_end"
	CalcAdvancedCERamp Name = "calc_advanced_ce_ramping_display_list"
	CalcSteppingList   Name = "calc_msms_stepping_display_list"
	CalcCycleTime      Name = "calc_cycle_time"
	CalcMS1Scans       Name = "calc_ms1_scans"
	CalcRamps          Name = "calc_ramps"
	CalcSteps          Name = "calc_steps"
	CalcMzWidth        Name = "calc_mz_width"
	CalcScanAreaMz     Name = "calc_scan_area_mz"
	CalcScanAreaIm     Name = "calc_scan_area_im"
	CalcImStart        Name = "calc_im_start"
	CalcImEnd          Name = "calc_im_end"
)

// Display markers.
const (
	NotAvailable = "N/A"
	Variable     = "variable"
	OpenEnd      = "Open End"
)

// Scan-mode identifiers with mode-specific geometry.
const (
	ScanModePASEF         = 6
	ScanModeDiaPASEF      = 9
	ScanModeDiagonalPASEF = 11
	NoScanMode            = -1
)
