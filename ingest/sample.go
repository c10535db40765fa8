package ingest

// SampleContract returns a small services agreement used by demos and tests.
func SampleContract() string {
	return `PROFESSIONAL SERVICES AGREEMENT

This Professional Services Agreement ("Agreement") is entered into between Company ABC ("Client") and Service Provider XYZ ("Provider").

1. SCOPE OF WORK
Provider agrees to perform consulting services as detailed in Exhibit A attached hereto.

2. PAYMENT TERMS
Client shall pay Provider a total fee of $50,000 payable in monthly installments of $10,000. Payment is due within 30 days of invoice receipt.

3. TERMINATION
Either party may terminate this Agreement with sixty (60) days written notice to the other party. In case of material breach, the non-breaching party may terminate immediately upon written notice.

4. CONFIDENTIALITY
Both parties agree to maintain confidentiality of all proprietary information exchanged during the term of this Agreement. This obligation survives termination for a period of three (3) years.

5. LIABILITY AND INDEMNIFICATION
Provider's total liability under this Agreement shall not exceed the total fees paid by Client. Each party agrees to indemnify the other against third-party claims arising from their negligent acts.

6. INTELLECTUAL PROPERTY
All work products created by Provider shall be owned by Client upon full payment of fees. Provider retains ownership of its pre-existing intellectual property.

7. FORCE MAJEURE
Neither party shall be liable for delays caused by circumstances beyond their reasonable control, including natural disasters or government actions.

8. GOVERNING LAW
This Agreement shall be governed by the laws of the State without regard to conflict of law principles. Disputes shall be resolved through binding arbitration.

9. NOTICE PROVISIONS
All notices must be in writing and delivered via certified mail or email with read receipt.`
}
