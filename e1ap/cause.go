// Copyright Louis Royer and the NextMN contributors. All rights reserved.
// Use of this source code is governed by a MIT-style license that can be
// found in the LICENSE file.
// SPDX-License-Identifier: MIT

package e1ap

import "fmt"

// Cause is one of CauseRadioNetwork, CauseTransport, CauseProtocol or CauseMisc.
type Cause interface {
	fmt.Stringer
	isCause()
}

type CauseRadioNetwork uint8

const (
	CauseRadioNetworkUnspecified CauseRadioNetwork = iota
	CauseRadioNetworkUnknownOrAlreadyAllocatedGNBCUCPUEE1APID
	CauseRadioNetworkUnknownOrAlreadyAllocatedGNBCUUPUEE1APID
	CauseRadioNetworkUnknownOrInconsistentPairOfUEE1APID
	CauseRadioNetworkInteractionWithOtherProcedure
	CauseRadioNetworkPDCPCountWrapAround
	CauseRadioNetworkNotSupportedQCIValue
	CauseRadioNetworkNotSupported5QIValue
	CauseRadioNetworkEncryptionAlgorithmsNotSupported
	CauseRadioNetworkIntegrityProtectionAlgorithmsNotSupported
	CauseRadioNetworkUPIntegrityProtectionNotPossible
	CauseRadioNetworkUPConfidentialityProtectionNotPossible
	CauseRadioNetworkMultiplePDUSessionIDInstances
	CauseRadioNetworkUnknownPDUSessionID
	CauseRadioNetworkMultipleQoSFlowIDInstances
	CauseRadioNetworkUnknownQoSFlowID
	CauseRadioNetworkMultipleDRBIDInstances
	CauseRadioNetworkUnknownDRBID
	CauseRadioNetworkInvalidQoSCombination
	CauseRadioNetworkProcedureCancelled
	CauseRadioNetworkNormalRelease
	CauseRadioNetworkNoRadioResourcesAvailable
	CauseRadioNetworkActionDesirableForRadioReasons
	CauseRadioNetworkResourcesNotAvailableForTheSlice
	CauseRadioNetworkPDCPConfigurationNotSupported
)

var radioNetworkCauseNames = [...]string{
	"unspecified",
	"unknown_or_already_allocated_gnb_cu_cp_ue_e1ap_id",
	"unknown_or_already_allocated_gnb_cu_up_ue_e1ap_id",
	"unknown_or_inconsistent_pair_of_ue_e1ap_id",
	"interaction_with_other_proc",
	"p_dcp_count_wrap_around",
	"not_supported_qci_value",
	"not_supported_5qi_value",
	"encryption_algorithms_not_supported",
	"integrity_protection_algorithms_not_supported",
	"up_integrity_protection_not_possible",
	"up_confidentiality_protection_not_possible",
	"multiple_pdu_session_id_instances",
	"unknown_pdu_session_id",
	"multiple_qos_flow_id_instances",
	"unknown_qos_flow_id",
	"multiple_drb_id_instances",
	"unknown_drb_id",
	"invalid_qos_combination",
	"proc_cancelled",
	"normal_release",
	"no_radio_res_available",
	"action_desirable_for_radio_reasons",
	"res_not_available_for_the_slice",
	"pdcp_cfg_not_supported",
}

func (CauseRadioNetwork) isCause() {}

func (c CauseRadioNetwork) String() string {
	if int(c) < len(radioNetworkCauseNames) {
		return "radio_network:" + radioNetworkCauseNames[c]
	}
	return fmt.Sprintf("radio_network:%d", uint8(c))
}

type CauseTransport uint8

const (
	CauseTransportUnspecified CauseTransport = iota
	CauseTransportResourceUnavailable
	CauseTransportUnknownTNLAddressForIAB
)

func (CauseTransport) isCause() {}

func (c CauseTransport) String() string {
	switch c {
	case CauseTransportUnspecified:
		return "transport:unspecified"
	case CauseTransportResourceUnavailable:
		return "transport:transport_res_unavailable"
	case CauseTransportUnknownTNLAddressForIAB:
		return "transport:unknown_tnl_address_for_iab"
	}
	return fmt.Sprintf("transport:%d", uint8(c))
}

type CauseProtocol uint8

const (
	CauseProtocolTransferSyntaxError CauseProtocol = iota
	CauseProtocolAbstractSyntaxErrorReject
	CauseProtocolAbstractSyntaxErrorIgnoreAndNotify
	CauseProtocolMessageNotCompatibleWithReceiverState
	CauseProtocolSemanticError
	CauseProtocolAbstractSyntaxErrorFalselyConstructedMessage
	CauseProtocolUnspecified
)

func (CauseProtocol) isCause() {}

func (c CauseProtocol) String() string {
	if c == CauseProtocolUnspecified {
		return "protocol:unspecified"
	}
	return fmt.Sprintf("protocol:%d", uint8(c))
}

type CauseMisc uint8

const (
	CauseMiscControlProcessingOverload CauseMisc = iota
	CauseMiscNotEnoughUserPlaneProcessingResources
	CauseMiscHardwareFailure
	CauseMiscOAMIntervention
	CauseMiscUnspecified
)

func (CauseMisc) isCause() {}

func (c CauseMisc) String() string {
	switch c {
	case CauseMiscNotEnoughUserPlaneProcessingResources:
		return "misc:not_enough_user_plane_processing_res"
	case CauseMiscUnspecified:
		return "misc:unspecified"
	}
	return fmt.Sprintf("misc:%d", uint8(c))
}
